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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	FindLatestPayment(ctx context.Context, orderID int64) (domain.Payment, error)
	AcquireInitiateLease(ctx context.Context, orderID int64, now time.Time, ttl time.Duration) (domain.Payment, error)
	AcquireRetryLease(ctx context.Context, id int64, now time.Time, ttl time.Duration) (domain.Payment, error)
	ReleaseLease(ctx context.Context, pmt domain.Payment) error
	CompleteInitiate(ctx context.Context, pmt domain.Payment, providerOrderRef string) (domain.Payment, error)
	CompleteRetry(ctx context.Context, prior domain.Payment, next domain.Payment) (domain.Payment, error)
	// Settle 支付记录不存在时返回 errs.PaymentNotFound, 已是终态时返回 errs.PaymentSettled
	Settle(ctx context.Context, providerOrderRef, providerPaymentRef string, status domain.PaymentStatus) (domain.Settlement, error)
	FindStalePendingPayments(ctx context.Context, ctime int64, afterID int64, limit int) ([]domain.Payment, error)
}

func NewPaymentRepository(d dao.PaymentDAO) PaymentRepository {
	return &paymentRepository{d: d}
}

type paymentRepository struct {
	d dao.PaymentDAO
}

func (r *paymentRepository) FindLatestPayment(ctx context.Context, orderID int64) (domain.Payment, error) {
	p, err := r.d.FindLatestByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Payment{}, errs.PaymentNotFound.With("orderId", orderID)
	}
	return toPaymentDomain(p), err
}

func (r *paymentRepository) AcquireInitiateLease(ctx context.Context, orderID int64, now time.Time, ttl time.Duration) (domain.Payment, error) {
	p, err := r.d.AcquireInitiateLease(ctx, orderID, now, ttl)
	return r.withTTL(p, ttl), err
}

func (r *paymentRepository) AcquireRetryLease(ctx context.Context, id int64, now time.Time, ttl time.Duration) (domain.Payment, error) {
	p, err := r.d.AcquireRetryLease(ctx, id, now, ttl)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Payment{}, errs.PaymentNotFound.With("paymentId", id)
	}
	return r.withTTL(p, ttl), err
}

func (r *paymentRepository) withTTL(p dao.Payment, ttl time.Duration) domain.Payment {
	res := toPaymentDomain(p)
	res.Lease.TTL = ttl
	return res
}

func (r *paymentRepository) ReleaseLease(ctx context.Context, pmt domain.Payment) error {
	return r.d.ReleaseLease(ctx, pmt.ID, pmt.Lease.HeldAt)
}

func (r *paymentRepository) CompleteInitiate(ctx context.Context, pmt domain.Payment, providerOrderRef string) (domain.Payment, error) {
	p, err := r.d.CompleteInitiate(ctx, pmt.ID, pmt.Lease.HeldAt, providerOrderRef)
	return toPaymentDomain(p), err
}

func (r *paymentRepository) CompleteRetry(ctx context.Context, prior domain.Payment, next domain.Payment) (domain.Payment, error) {
	p, err := r.d.CompleteRetry(ctx, prior.ID, prior.Lease.HeldAt, toPaymentEntity(next))
	return toPaymentDomain(p), err
}

func (r *paymentRepository) Settle(ctx context.Context, providerOrderRef, providerPaymentRef string, status domain.PaymentStatus) (domain.Settlement, error) {
	res, err := r.d.Settle(ctx, providerOrderRef, providerPaymentRef, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Settlement{}, errs.PaymentNotFound.With("providerOrderRef", providerOrderRef)
	}
	return domain.Settlement{
		Payment: toPaymentDomain(res.Payment),
		Order: domain.Order{
			ID:      res.Order.Id,
			SN:      res.Order.SN,
			BuyerID: res.Order.BuyerId,
			Status:  domain.OrderStatus(res.Order.Status),
		},
		OrderUpdated: res.OrderUpdated,
	}, err
}

func (r *paymentRepository) FindStalePendingPayments(ctx context.Context, ctime int64, afterID int64, limit int) ([]domain.Payment, error) {
	ps, err := r.d.FindStalePending(ctx, ctime, afterID, limit)
	return slice.Map(ps, func(idx int, src dao.Payment) domain.Payment {
		return toPaymentDomain(src)
	}), err
}

func toPaymentEntity(p domain.Payment) dao.Payment {
	return dao.Payment{
		Id:                  p.ID,
		SN:                  p.SN,
		OrderId:             p.OrderID,
		Method:              p.Method.ToUint8(),
		Status:              p.Status.ToUint8(),
		Amount:              p.Amount,
		Currency:            p.Currency,
		ProviderOrderRef:    sql.NullString{String: p.ProviderOrderRef, Valid: p.ProviderOrderRef != ""},
		ProviderPaymentRef:  sql.NullString{String: p.ProviderPaymentRef, Valid: p.ProviderPaymentRef != ""},
		ProcessingStartedAt: p.Lease.HeldAt,
	}
}

func toPaymentDomain(p dao.Payment) domain.Payment {
	return domain.Payment{
		ID:                 p.Id,
		SN:                 p.SN,
		OrderID:            p.OrderId,
		Method:             domain.PaymentMethod(p.Method),
		Status:             domain.PaymentStatus(p.Status),
		Amount:             p.Amount,
		Currency:           p.Currency,
		ProviderOrderRef:   p.ProviderOrderRef.String,
		ProviderPaymentRef: p.ProviderPaymentRef.String,
		Lease:              domain.Lease{HeldAt: p.ProcessingStartedAt},
		Ctime:              p.Ctime,
		Utime:              p.Utime,
	}
}
