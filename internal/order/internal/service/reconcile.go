// Copyright 2023 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"errors"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/event"
	"github.com/ecodeclub/emall/internal/order/internal/repository"
	"github.com/ecodeclub/emall/internal/payment"
	"github.com/gotomicro/ego/core/elog"
)

type ReconcileService interface {
	// HandleWebhook 处理网关回调, 任何失败都只记录日志, 调用方总是应答成功
	HandleWebhook(ctx context.Context, body []byte, signature string)
	// SyncPayment 主动查询网关, 用于补偿丢失的回调
	SyncPayment(ctx context.Context, pmt domain.Payment) error
	FindStalePendingPayments(ctx context.Context, before time.Time, afterID int64, limit int) ([]domain.Payment, error)
}

var outcomeToPaymentStatus = map[payment.Outcome]domain.PaymentStatus{
	payment.OutcomeCaptured: domain.PaymentStatusSuccess,
	payment.OutcomeFailed:   domain.PaymentStatusFailed,
}

type reconcileService struct {
	payments repository.PaymentRepository
	gateway  payment.Gateway
	notifier payment.NotifyParser
	audit    auditor
	cfg      Config
	l        *elog.Component
}

func NewReconcileService(payments repository.PaymentRepository,
	gateway payment.Gateway,
	notifier payment.NotifyParser,
	producer event.AuditEventProducer,
	cfg Config) ReconcileService {
	return &reconcileService{
		payments: payments,
		gateway:  gateway,
		notifier: notifier,
		audit:    auditor{producer: producer, l: elog.DefaultLogger},
		cfg:      cfg,
		l:        elog.DefaultLogger,
	}
}

func (s *reconcileService) HandleWebhook(ctx context.Context, body []byte, signature string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.notifier.Verify(body, signature); err != nil {
		s.l.Warn("网关回调签名校验失败", elog.FieldErr(err))
		return
	}
	n, err := s.notifier.Parse(body)
	if errors.Is(err, payment.ErrIgnoredEvent) {
		s.l.Info("忽略网关回调", elog.FieldErr(err))
		return
	}
	if err != nil {
		s.l.Warn("网关回调内容非法", elog.FieldErr(err))
		return
	}
	if err = s.settle(ctx, n.OrderRef, n.PaymentRef, n.Outcome, "webhook"); err != nil {
		s.l.Error("处理网关回调失败",
			elog.FieldErr(err),
			elog.String("event", n.Event),
			elog.String("providerOrderRef", n.OrderRef),
			elog.String("providerPaymentRef", n.PaymentRef))
	}
}

func (s *reconcileService) SyncPayment(ctx context.Context, pmt domain.Payment) error {
	remotes, err := s.fetchRemotePayments(ctx, pmt.ProviderOrderRef)
	if err != nil {
		return err
	}
	if captured, ok := slice.Find(remotes, func(src payment.RemotePayment) bool {
		return src.Outcome == payment.OutcomeCaptured
	}); ok {
		return s.settle(ctx, pmt.ProviderOrderRef, captured.ID, payment.OutcomeCaptured, "sync")
	}
	// 用户可能失败后在同一个网关订单上再次支付成功, 只有全部失败才认为这次支付失败
	if len(remotes) == 0 {
		return nil
	}
	for _, r := range remotes {
		if r.Outcome != payment.OutcomeFailed {
			return nil
		}
	}
	return s.settle(ctx, pmt.ProviderOrderRef, remotes[len(remotes)-1].ID, payment.OutcomeFailed, "sync")
}

func (s *reconcileService) fetchRemotePayments(ctx context.Context, orderRef string) ([]payment.RemotePayment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	return s.gateway.FetchOrderPayments(ctx, orderRef)
}

func (s *reconcileService) FindStalePendingPayments(ctx context.Context, before time.Time, afterID int64, limit int) ([]domain.Payment, error) {
	return s.payments.FindStalePendingPayments(ctx, before.UnixMilli(), afterID, limit)
}

// settle 支付记录不存在或已是终态时视为已处理
func (s *reconcileService) settle(ctx context.Context, orderRef, paymentRef string, outcome payment.Outcome, source string) error {
	status, ok := outcomeToPaymentStatus[outcome]
	if !ok {
		s.l.Info("忽略未知的支付结果",
			elog.String("source", source),
			elog.String("outcome", outcome.String()),
			elog.String("providerOrderRef", orderRef))
		return nil
	}
	res, err := s.payments.Settle(ctx, orderRef, paymentRef, status)
	switch {
	case errors.Is(err, errs.PaymentNotFound):
		s.l.Warn("未找到网关订单对应的支付记录",
			elog.String("source", source),
			elog.String("providerOrderRef", orderRef))
		return nil
	case errors.Is(err, errs.PaymentSettled):
		s.l.Info("重复的支付结果",
			elog.String("source", source),
			elog.String("providerOrderRef", orderRef),
			elog.String("providerPaymentRef", paymentRef))
		return nil
	case err != nil:
		return err
	}

	evts := []event.AuditEvent{event.NewPaymentEvent("payment.settle", 0, res.Payment, domain.PaymentStatusPending)}
	if res.OrderUpdated {
		before := res.Order
		before.Status = domain.StatusPending
		evts = append(evts, event.NewOrderChangedEvents("payment.settle", 0, before, res.Order)...)
	} else if status == domain.PaymentStatusSuccess {
		s.l.Warn("支付成功但订单状态不允许标记为已支付",
			elog.String("source", source),
			elog.String("orderSN", res.Order.SN),
			elog.String("orderStatus", res.Order.Status.String()),
			elog.String("providerPaymentRef", paymentRef))
	}
	s.audit.publish(ctx, evts...)
	return nil
}
