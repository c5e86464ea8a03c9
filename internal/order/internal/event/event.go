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

package event

import (
	"fmt"
	"time"

	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/google/uuid"
)

const AuditEventTopic = "audit_events"

// EntityKind 审计事件关联的实体类型
type EntityKind string

const (
	EntityOrder     EntityKind = "order"
	EntityOrderItem EntityKind = "order_item"
	EntityPayment   EntityKind = "payment"
)

type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
}

// AuditEvent 状态变更记录, 由外部的审计服务消费落库
type AuditEvent struct {
	ID      string    `json:"id"`
	Action  string    `json:"action"`
	Ref     EntityRef `json:"ref"`
	ActorID int64     `json:"actorId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Ctime   int64     `json:"ctime"`
}

func newAuditEvent(action string, actorID int64, ref EntityRef, from, to string) AuditEvent {
	return AuditEvent{
		ID:      uuid.NewString(),
		Action:  action,
		Ref:     ref,
		ActorID: actorID,
		From:    from,
		To:      to,
		Ctime:   time.Now().UnixMilli(),
	}
}

// NewOrderCreatedEvents 新订单、订单项以及首条支付记录
func NewOrderCreatedEvents(actorID int64, o domain.Order, pmt domain.Payment) []AuditEvent {
	res := make([]AuditEvent, 0, len(o.Items)+2)
	res = append(res, newAuditEvent("order.create", actorID,
		EntityRef{Kind: EntityOrder, ID: o.ID}, "", o.Status.String()))
	for _, item := range o.Items {
		res = append(res, newAuditEvent("order.create", actorID,
			EntityRef{Kind: EntityOrderItem, ID: item.ID}, "", item.Status.String()))
	}
	res = append(res, NewPaymentEvent("payment.create", actorID, pmt, domain.PaymentStatusUnknown))
	return res
}

// NewOrderChangedEvents 对比变更前后的订单, 为每个状态发生变化的实体生成一条事件
func NewOrderChangedEvents(action string, actorID int64, before, after domain.Order) []AuditEvent {
	var res []AuditEvent
	if before.Status != after.Status {
		res = append(res, newAuditEvent(action, actorID,
			EntityRef{Kind: EntityOrder, ID: after.ID}, before.Status.String(), after.Status.String()))
	}
	old := make(map[int64]domain.OrderStatus, len(before.Items))
	for _, item := range before.Items {
		old[item.ID] = item.Status
	}
	for _, item := range after.Items {
		if from, ok := old[item.ID]; ok && from == item.Status {
			continue
		}
		res = append(res, newAuditEvent(action, actorID,
			EntityRef{Kind: EntityOrderItem, ID: item.ID}, old[item.ID].String(), item.Status.String()))
	}
	return res
}

func NewPaymentEvent(action string, actorID int64, pmt domain.Payment, from domain.PaymentStatus) AuditEvent {
	f := ""
	if from != domain.PaymentStatusUnknown {
		f = from.String()
	}
	return newAuditEvent(action, actorID, EntityRef{Kind: EntityPayment, ID: pmt.ID}, f, pmt.Status.String())
}

// MessageKey 同一实体的事件按顺序投递
func (e AuditEvent) MessageKey() string {
	return fmt.Sprintf("%s:%d", e.Ref.Kind, e.Ref.ID)
}
