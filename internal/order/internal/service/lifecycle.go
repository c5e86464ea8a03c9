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

	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/event"
	"github.com/ecodeclub/emall/internal/order/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

// LifecycleService 取消、退货与后台履约. 买家操作会校验订单归属, 后台操作不校验
type LifecycleService interface {
	CancelOrder(ctx context.Context, buyerID int64, sn string) (domain.Order, error)
	CancelItem(ctx context.Context, buyerID int64, itemID int64) (domain.Order, error)
	RequestReturn(ctx context.Context, buyerID int64, sn string) (domain.Order, error)
	RequestItemReturn(ctx context.Context, buyerID int64, itemID int64) (domain.Order, error)

	Ship(ctx context.Context, adminID int64, sn string) (domain.Order, error)
	// Deliver 货到付款的订单签收即视为支付成功
	Deliver(ctx context.Context, adminID int64, sn string) (domain.Order, error)
	// CompleteReturn 整单退货完成时支付记录标记为已退款
	CompleteReturn(ctx context.Context, adminID int64, sn string) (domain.Order, error)
}

type transition func(o *domain.Order, pmt *domain.Payment) (domain.Offender, bool)

type lifecycleService struct {
	repo  repository.OrderRepository
	audit auditor
}

func NewLifecycleService(repo repository.OrderRepository, producer event.AuditEventProducer) LifecycleService {
	return &lifecycleService{
		repo:  repo,
		audit: auditor{producer: producer, l: elog.DefaultLogger},
	}
}

func (s *lifecycleService) CancelOrder(ctx context.Context, buyerID int64, sn string) (domain.Order, error) {
	return s.mutateBySN(ctx, "order.cancel", buyerID, sn, true, func(o *domain.Order, _ *domain.Payment) (domain.Offender, bool) {
		return o.Cancel()
	})
}

func (s *lifecycleService) CancelItem(ctx context.Context, buyerID int64, itemID int64) (domain.Order, error) {
	return s.mutateByItem(ctx, "order_item.cancel", buyerID, itemID, func(o *domain.Order, _ *domain.Payment) (domain.Offender, bool) {
		return o.CancelItem(itemID)
	})
}

func (s *lifecycleService) RequestReturn(ctx context.Context, buyerID int64, sn string) (domain.Order, error) {
	return s.mutateBySN(ctx, "order.return", buyerID, sn, true, func(o *domain.Order, _ *domain.Payment) (domain.Offender, bool) {
		return o.RequestReturn()
	})
}

func (s *lifecycleService) RequestItemReturn(ctx context.Context, buyerID int64, itemID int64) (domain.Order, error) {
	return s.mutateByItem(ctx, "order_item.return", buyerID, itemID, func(o *domain.Order, _ *domain.Payment) (domain.Offender, bool) {
		return o.RequestItemReturn(itemID)
	})
}

func (s *lifecycleService) Ship(ctx context.Context, adminID int64, sn string) (domain.Order, error) {
	return s.mutateBySN(ctx, "order.ship", adminID, sn, false, func(o *domain.Order, pmt *domain.Payment) (domain.Offender, bool) {
		return o.Ship(pmt.Method)
	})
}

func (s *lifecycleService) Deliver(ctx context.Context, adminID int64, sn string) (domain.Order, error) {
	return s.mutateBySN(ctx, "order.deliver", adminID, sn, false, func(o *domain.Order, pmt *domain.Payment) (domain.Offender, bool) {
		off, ok := o.Deliver()
		if ok && pmt.Method == domain.PaymentMethodCOD && pmt.Status.CanTransitTo(domain.PaymentStatusSuccess) {
			pmt.Status = domain.PaymentStatusSuccess
		}
		return off, ok
	})
}

func (s *lifecycleService) CompleteReturn(ctx context.Context, adminID int64, sn string) (domain.Order, error) {
	return s.mutateBySN(ctx, "order.return_complete", adminID, sn, false, func(o *domain.Order, pmt *domain.Payment) (domain.Offender, bool) {
		off, ok := o.CompleteReturn()
		if ok && o.Status == domain.StatusReturned && pmt.Status.CanTransitTo(domain.PaymentStatusRefunded) {
			pmt.Status = domain.PaymentStatusRefunded
		}
		return off, ok
	})
}

func (s *lifecycleService) mutateBySN(ctx context.Context, action string, actorID int64, sn string, owned bool, fn transition) (domain.Order, error) {
	o, err := s.repo.FindOrderBySN(ctx, sn)
	if err != nil {
		return domain.Order{}, err
	}
	var ownerID int64
	if owned {
		ownerID = actorID
	}
	return s.mutate(ctx, action, actorID, o.ID, ownerID, errs.OrderNotFound.With("orderSN", sn), fn)
}

func (s *lifecycleService) mutateByItem(ctx context.Context, action string, buyerID int64, itemID int64, fn transition) (domain.Order, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.mutate(ctx, action, buyerID, item.OrderID, buyerID, errs.OrderItemNotFound.With("itemId", itemID), fn)
}

// mutate ownerID 为 0 时不校验订单归属, 不属于 ownerID 的订单返回 notFound
func (s *lifecycleService) mutate(ctx context.Context, action string, actorID, orderID, ownerID int64,
	notFound *errs.Error, fn transition) (domain.Order, error) {
	ctx = context.WithoutCancel(ctx)
	var (
		before    domain.Order
		pmtBefore domain.Payment
		pmtAfter  domain.Payment
	)
	after, err := s.repo.MutateOrder(ctx, orderID, func(o *domain.Order, pmt *domain.Payment) error {
		if ownerID > 0 && o.BuyerID != ownerID {
			return notFound
		}
		before, pmtBefore = o.Clone(), *pmt
		if off, ok := fn(o, pmt); !ok {
			return transitionError(action, o.SN, off)
		}
		pmtAfter = *pmt
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	evts := event.NewOrderChangedEvents(action, actorID, before, after)
	if pmtAfter.Status != pmtBefore.Status {
		evts = append(evts, event.NewPaymentEvent(action, actorID, pmtAfter, pmtBefore.Status))
	}
	s.audit.publish(ctx, evts...)
	return after, nil
}

func transitionError(action, sn string, off domain.Offender) error {
	err := errs.InvalidTransition.With("action", action).With("orderSN", sn)
	if off.ItemID > 0 {
		err = err.With("itemId", off.ItemID)
	}
	return err.With("status", off.Status.String())
}
