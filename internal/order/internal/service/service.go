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
	"github.com/gotomicro/ego/core/elog"
)

type Config struct {
	// LeaseTTL 支付租约的有效期, 覆盖一次网关调用
	LeaseTTL time.Duration
	// RetryCutoff 待支付记录超过该时长才允许重新发起支付
	RetryCutoff time.Duration
	// RequestIDTTL 下单请求 ID 的去重窗口
	RequestIDTTL   time.Duration
	Currency       string
	GatewayTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		LeaseTTL:       2 * time.Minute,
		RetryCutoff:    15 * time.Minute,
		RequestIDTTL:   10 * time.Minute,
		Currency:       "INR",
		GatewayTimeout: 8 * time.Second,
	}
}

// auditor 投递审计事件, 失败只记录日志, 不影响主流程
type auditor struct {
	producer event.AuditEventProducer
	l        *elog.Component
}

func (a auditor) publish(ctx context.Context, evts ...event.AuditEvent) {
	ctx = context.WithoutCancel(ctx)
	for _, evt := range evts {
		if err := a.producer.Produce(ctx, evt); err != nil {
			a.l.Error("发送审计事件失败",
				elog.FieldErr(err),
				elog.String("action", evt.Action),
				elog.String("kind", string(evt.Ref.Kind)),
				elog.Int64("id", evt.Ref.ID))
		}
	}
}

// findOwnedOrder 订单不属于该买家时按不存在处理
func findOwnedOrder(ctx context.Context, repo repository.OrderRepository, buyerID int64, sn string) (domain.Order, error) {
	o, err := repo.FindOrderBySN(ctx, sn)
	if err != nil {
		return domain.Order{}, err
	}
	if o.BuyerID != buyerID {
		return domain.Order{}, errs.OrderNotFound.With("orderSN", sn)
	}
	return o, nil
}

// checkPayable 已支付返回 OrderAlreadyPaid, 存在已进入履约或售后的订单项返回 OrderBlocked
func checkPayable(o domain.Order) error {
	if o.Status == domain.StatusPaid {
		return errs.OrderAlreadyPaid.With("orderSN", o.SN)
	}
	if o.Status.BlocksPayment() {
		return errs.OrderBlocked.With("orderSN", o.SN).With("status", o.Status.String())
	}
	if item, ok := o.FirstItem(func(item domain.OrderItem) bool {
		return item.Status.BlocksPayment()
	}); ok {
		return errs.OrderBlocked.With("itemId", item.ID).With("status", item.Status.String())
	}
	return nil
}
