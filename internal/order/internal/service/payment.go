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
	"time"

	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/event"
	"github.com/ecodeclub/emall/internal/order/internal/repository"
	"github.com/ecodeclub/emall/internal/payment"
	"github.com/ecodeclub/emall/internal/pkg/snowflake"
	"github.com/gotomicro/ego/core/elog"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	// Initiate 为订单当前的待支付记录创建网关订单, 已创建过时直接返回, 不会重复调用网关
	Initiate(ctx context.Context, buyerID int64, orderSN string) (domain.GatewayOrder, error)
	// Retry 放弃上一次支付, 创建新的网关订单和支付记录
	Retry(ctx context.Context, buyerID int64, orderSN string) (domain.GatewayOrder, error)
	Status(ctx context.Context, buyerID int64, orderSN string) (domain.PaymentState, error)
}

type paymentService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  payment.Gateway
	ids      *snowflake.Generator
	audit    auditor
	cfg      Config
	l        *elog.Component
	now      func() time.Time
}

func NewPaymentService(orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gateway payment.Gateway,
	ids *snowflake.Generator,
	producer event.AuditEventProducer,
	cfg Config) PaymentService {
	return &paymentService{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		ids:      ids,
		audit:    auditor{producer: producer, l: elog.DefaultLogger},
		cfg:      cfg,
		l:        elog.DefaultLogger,
		now:      time.Now,
	}
}

func (s *paymentService) Initiate(ctx context.Context, buyerID int64, orderSN string) (domain.GatewayOrder, error) {
	// 一旦开始就不受调用方取消的影响, 否则租约可能无人释放
	ctx = context.WithoutCancel(ctx)
	o, err := findOwnedOrder(ctx, s.orders, buyerID, orderSN)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	if err = checkPayable(o); err != nil {
		return domain.GatewayOrder{}, err
	}

	pmt, err := s.payments.AcquireInitiateLease(ctx, o.ID, s.now(), s.cfg.LeaseTTL)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	if pmt.ProviderOrderRef != "" {
		return s.toGatewayOrder(o, pmt), nil
	}
	defer s.releaseLease(ctx, pmt)

	remote, err := s.createRemoteOrder(ctx, pmt.Amount, pmt.Currency, pmt.SN)
	if err != nil {
		s.l.Error("网关创建订单失败",
			elog.FieldErr(err),
			elog.String("orderSN", o.SN),
			elog.String("paymentSN", pmt.SN))
		return domain.GatewayOrder{}, errs.GatewayUnavailable.With("orderSN", o.SN)
	}
	pmt, err = s.payments.CompleteInitiate(ctx, pmt, remote.ID)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	return s.toGatewayOrder(o, pmt), nil
}

func (s *paymentService) Retry(ctx context.Context, buyerID int64, orderSN string) (domain.GatewayOrder, error) {
	ctx = context.WithoutCancel(ctx)
	o, err := findOwnedOrder(ctx, s.orders, buyerID, orderSN)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	if err = checkPayable(o); err != nil {
		return domain.GatewayOrder{}, err
	}
	latest, err := s.payments.FindLatestPayment(ctx, o.ID)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	if err = s.checkRetry(latest); err != nil {
		return domain.GatewayOrder{}, err
	}

	prior, err := s.payments.AcquireRetryLease(ctx, latest.ID, s.now(), s.cfg.LeaseTTL)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	defer s.releaseLease(ctx, prior)

	sn, err := s.ids.NextSN(snowflake.BizPayment, "PAY")
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	remote, err := s.createRemoteOrder(ctx, prior.Amount, prior.Currency, sn)
	if err != nil {
		s.l.Error("重试支付时网关创建订单失败",
			elog.FieldErr(err),
			elog.String("orderSN", o.SN),
			elog.String("paymentSN", sn))
		return domain.GatewayOrder{}, errs.GatewayUnavailable.With("orderSN", o.SN)
	}
	next, err := s.payments.CompleteRetry(ctx, prior, domain.Payment{
		SN:               sn,
		ProviderOrderRef: remote.ID,
	})
	if err != nil {
		return domain.GatewayOrder{}, err
	}

	evts := []event.AuditEvent{event.NewPaymentEvent("payment.retry", buyerID, next, domain.PaymentStatusUnknown)}
	if prior.Status != domain.PaymentStatusFailed {
		failed := prior
		failed.Status = domain.PaymentStatusFailed
		evts = append(evts, event.NewPaymentEvent("payment.retry", buyerID, failed, prior.Status))
	}
	s.audit.publish(ctx, evts...)
	return s.toGatewayOrder(o, next), nil
}

// checkRetry 订单层面的校验之后, 依次校验最近一次支付的状态与租约
func (s *paymentService) checkRetry(latest domain.Payment) error {
	if latest.Method == domain.PaymentMethodCOD {
		return errs.CODNotRetryable.With("paymentSN", latest.SN)
	}
	switch latest.Status {
	case domain.PaymentStatusSuccess:
		return errs.PaymentSucceeded.With("paymentSN", latest.SN)
	case domain.PaymentStatusRefunded:
		return errs.PaymentRefunded.With("paymentSN", latest.SN)
	}
	now := s.now()
	if !latest.RetryAllowed(now, s.cfg.RetryCutoff) {
		return errs.RetryTooEarly.With("paymentSN", latest.SN)
	}
	latest.Lease.TTL = s.cfg.LeaseTTL
	if latest.Lease.IsFresh(now) {
		return errs.PaymentInProgress.With("paymentSN", latest.SN)
	}
	return nil
}

func (s *paymentService) Status(ctx context.Context, buyerID int64, orderSN string) (domain.PaymentState, error) {
	o, err := findOwnedOrder(ctx, s.orders, buyerID, orderSN)
	if err != nil {
		return domain.PaymentState{}, err
	}
	latest, err := s.payments.FindLatestPayment(ctx, o.ID)
	if err != nil {
		return domain.PaymentState{}, err
	}
	return domain.PaymentState{
		OrderSN:       o.SN,
		OrderStatus:   o.Status,
		PaymentStatus: latest.Status,
		RetryAllowed: latest.Method == domain.PaymentMethodGateway &&
			latest.RetryAllowed(s.now(), s.cfg.RetryCutoff),
	}, nil
}

func (s *paymentService) createRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (payment.RemoteOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()
	return s.gateway.CreateOrder(ctx, payment.CreateOrderReq{
		Amount:   domain.MinorAmount(amount),
		Currency: currency,
		Receipt:  receipt,
	})
}

// releaseLease 成功路径上租约已被清除, 这里的 CAS 不会生效
func (s *paymentService) releaseLease(ctx context.Context, pmt domain.Payment) {
	if err := s.payments.ReleaseLease(ctx, pmt); err != nil {
		s.l.Error("释放支付租约失败",
			elog.FieldErr(err),
			elog.Int64("paymentId", pmt.ID),
			elog.Int64("heldAt", pmt.Lease.HeldAt))
	}
}

func (s *paymentService) toGatewayOrder(o domain.Order, pmt domain.Payment) domain.GatewayOrder {
	return domain.GatewayOrder{
		OrderSN:         o.SN,
		GatewayOrderRef: pmt.ProviderOrderRef,
		PublicKey:       s.gateway.KeyID(),
		MinorAmount:     domain.MinorAmount(pmt.Amount),
		Currency:        pmt.Currency,
	}
}
