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

package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// Settlement 回调结算的结果
type Settlement struct {
	Payment      Payment
	Order        Order
	OrderUpdated bool
}

type PaymentDAO interface {
	FindLatestByOrderID(ctx context.Context, orderID int64) (Payment, error)
	// AcquireInitiateLease 锁住订单最新的待支付在线支付记录, 已有网关订单号时直接返回, 不占用租约
	AcquireInitiateLease(ctx context.Context, orderID int64, now time.Time, ttl time.Duration) (Payment, error)
	// AcquireRetryLease 锁住 id 对应的支付记录并占用租约, 要求它仍是订单最新的一条
	AcquireRetryLease(ctx context.Context, id int64, now time.Time, ttl time.Duration) (Payment, error)
	// ReleaseLease 只有租约仍是 heldAt 时才会释放
	ReleaseLease(ctx context.Context, id int64, heldAt int64) error
	CompleteInitiate(ctx context.Context, id int64, heldAt int64, providerOrderRef string) (Payment, error)
	// CompleteRetry 插入新的待支付记录, 并把上一条标记为失败
	CompleteRetry(ctx context.Context, priorID int64, heldAt int64, next Payment) (Payment, error)
	Settle(ctx context.Context, providerOrderRef, providerPaymentRef string, status domain.PaymentStatus) (Settlement, error)
	// FindStalePending 在线支付、已有网关订单号且创建时间早于 ctime 的待支付记录, 按 id 游标分页
	FindStalePending(ctx context.Context, ctime int64, afterID int64, limit int) ([]Payment, error)
}

type PaymentGORMDAO struct {
	db *egorm.Component
}

func NewPaymentGORMDAO(db *egorm.Component) PaymentDAO {
	return &PaymentGORMDAO{db: db}
}

func (g *PaymentGORMDAO) FindLatestByOrderID(ctx context.Context, orderID int64) (Payment, error) {
	var res Payment
	err := g.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id DESC").First(&res).Error
	return res, err
}

func (g *PaymentGORMDAO) AcquireInitiateLease(ctx context.Context, orderID int64, now time.Time, ttl time.Duration) (Payment, error) {
	var pmt Payment
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(forUpdate).
			Where("order_id = ? AND method = ? AND status = ?",
				orderID, domain.PaymentMethodGateway.ToUint8(), domain.PaymentStatusPending.ToUint8()).
			Order("id DESC").
			First(&pmt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NoPendingPayment
		}
		if err != nil {
			return err
		}
		if pmt.ProviderOrderRef.Valid {
			return nil
		}
		return takeLease(tx, &pmt, now, ttl)
	})
	return pmt, err
}

func (g *PaymentGORMDAO) AcquireRetryLease(ctx context.Context, id int64, now time.Time, ttl time.Duration) (Payment, error) {
	var pmt Payment
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).Where("id = ?", id).First(&pmt).Error; err != nil {
			return err
		}
		switch domain.PaymentStatus(pmt.Status) {
		case domain.PaymentStatusSuccess:
			return errs.PaymentSucceeded
		case domain.PaymentStatusRefunded:
			return errs.PaymentRefunded
		}
		var newer int64
		err := tx.Model(&Payment{}).Where("order_id = ? AND id > ?", pmt.OrderId, pmt.Id).Count(&newer).Error
		if err != nil {
			return err
		}
		if newer > 0 {
			// 并发的另一次重试已经成功
			return errs.RetryTooEarly
		}
		return takeLease(tx, &pmt, now, ttl)
	})
	return pmt, err
}

func takeLease(tx *gorm.DB, pmt *Payment, now time.Time, ttl time.Duration) error {
	lease := domain.Lease{HeldAt: pmt.ProcessingStartedAt, TTL: ttl}
	if lease.IsFresh(now) {
		return errs.PaymentInProgress.With("paymentId", pmt.Id)
	}
	pmt.ProcessingStartedAt = now.UnixMilli()
	pmt.Utime = now.UnixMilli()
	err := tx.Model(&Payment{}).Where("id = ?", pmt.Id).Updates(map[string]any{
		"processing_started_at": pmt.ProcessingStartedAt,
		"utime":                 pmt.Utime,
	}).Error
	if err != nil {
		return fmt.Errorf("占用支付租约失败: %w", err)
	}
	return nil
}

func (g *PaymentGORMDAO) ReleaseLease(ctx context.Context, id int64, heldAt int64) error {
	return g.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND processing_started_at = ?", id, heldAt).
		Updates(map[string]any{
			"processing_started_at": 0,
			"utime":                 time.Now().UnixMilli(),
		}).Error
}

func (g *PaymentGORMDAO) CompleteInitiate(ctx context.Context, id int64, heldAt int64, providerOrderRef string) (Payment, error) {
	var pmt Payment
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).Where("id = ?", id).First(&pmt).Error; err != nil {
			return err
		}
		// 租约过期后被别的请求抢先写入了网关订单号, 以先写入的为准
		if pmt.ProviderOrderRef.Valid {
			return nil
		}
		now := time.Now().UnixMilli()
		pmt.ProviderOrderRef = sql.NullString{String: providerOrderRef, Valid: true}
		pmt.Utime = now
		updates := map[string]any{
			"provider_order_ref": pmt.ProviderOrderRef,
			"utime":              now,
		}
		if pmt.ProcessingStartedAt == heldAt {
			pmt.ProcessingStartedAt = 0
			updates["processing_started_at"] = 0
		}
		return tx.Model(&Payment{}).Where("id = ?", id).Updates(updates).Error
	})
	return pmt, err
}

func (g *PaymentGORMDAO) CompleteRetry(ctx context.Context, priorID int64, heldAt int64, next Payment) (Payment, error) {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior Payment
		if err := tx.Clauses(forUpdate).Where("id = ?", priorID).First(&prior).Error; err != nil {
			return err
		}
		// 调用网关期间回调已经把上一次支付结算为成功
		status := domain.PaymentStatus(prior.Status)
		if status == domain.PaymentStatusSuccess || status == domain.PaymentStatusRefunded {
			return errs.PaymentSettled.With("paymentId", prior.Id)
		}

		now := time.Now().UnixMilli()
		next.OrderId = prior.OrderId
		next.Method = domain.PaymentMethodGateway.ToUint8()
		next.Status = domain.PaymentStatusPending.ToUint8()
		next.Amount = prior.Amount
		next.Currency = prior.Currency
		next.Ctime, next.Utime = now, now
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("创建重试支付记录失败: %w", err)
		}

		updates := map[string]any{
			"status": domain.PaymentStatusFailed.ToUint8(),
			"utime":  now,
		}
		if prior.ProcessingStartedAt == heldAt {
			updates["processing_started_at"] = 0
		}
		return tx.Model(&Payment{}).Where("id = ?", prior.Id).Updates(updates).Error
	})
	return next, err
}

func (g *PaymentGORMDAO) Settle(ctx context.Context, providerOrderRef, providerPaymentRef string, status domain.PaymentStatus) (Settlement, error) {
	var res Settlement
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pmt := &res.Payment
		if err := tx.Clauses(forUpdate).Where("provider_order_ref = ?", providerOrderRef).First(pmt).Error; err != nil {
			return err
		}
		if domain.PaymentStatus(pmt.Status).IsTerminal() {
			return errs.PaymentSettled.With("paymentId", pmt.Id)
		}

		o := &res.Order
		if err := tx.Clauses(forUpdate).Where("id = ?", pmt.OrderId).First(o).Error; err != nil {
			return fmt.Errorf("锁定订单失败: %w", err)
		}
		var pendingIDs []int64
		err := tx.Model(&OrderItem{}).Clauses(forUpdate).
			Where("order_id = ? AND status = ?", o.Id, domain.StatusPending.ToUint8()).
			Order("id").
			Pluck("id", &pendingIDs).Error
		if err != nil {
			return fmt.Errorf("锁定订单项失败: %w", err)
		}

		now := time.Now().UnixMilli()
		pmt.Status = status.ToUint8()
		pmt.ProviderPaymentRef = sql.NullString{String: providerPaymentRef, Valid: providerPaymentRef != ""}
		pmt.Utime = now
		err = tx.Model(&Payment{}).Where("id = ?", pmt.Id).Updates(map[string]any{
			"status":               pmt.Status,
			"provider_payment_ref": pmt.ProviderPaymentRef,
			"utime":                now,
		}).Error
		if err != nil {
			return fmt.Errorf("更新支付状态失败: %w", err)
		}
		if status != domain.PaymentStatusSuccess {
			return nil
		}

		// 已取消的订单即便支付成功也不再改变状态
		if !domain.OrderStatus(o.Status).CanTransitTo(domain.StatusPaid) {
			return nil
		}
		o.Status = domain.StatusPaid.ToUint8()
		o.Utime = now
		err = tx.Model(&Order{}).Where("id = ?", o.Id).Updates(map[string]any{
			"status": o.Status,
			"utime":  now,
		}).Error
		if err != nil {
			return fmt.Errorf("更新订单状态失败: %w", err)
		}
		res.OrderUpdated = true
		if len(pendingIDs) == 0 {
			return nil
		}
		return tx.Model(&OrderItem{}).Where("id IN ?", pendingIDs).Updates(map[string]any{
			"status": domain.StatusPaid.ToUint8(),
			"utime":  now,
		}).Error
	})
	return res, err
}

func (g *PaymentGORMDAO) FindStalePending(ctx context.Context, ctime int64, afterID int64, limit int) ([]Payment, error) {
	var res []Payment
	err := g.db.WithContext(ctx).
		Where("id > ? AND method = ? AND status = ? AND provider_order_ref IS NOT NULL AND ctime < ?",
			afterID, domain.PaymentMethodGateway.ToUint8(), domain.PaymentStatusPending.ToUint8(), ctime).
		Order("id").
		Limit(limit).
		Find(&res).Error
	return res, err
}
