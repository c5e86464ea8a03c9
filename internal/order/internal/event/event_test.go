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
	"testing"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	Ref  EntityRef
	From string
	To   string
}

func changes(evts []AuditEvent) []change {
	return slice.Map(evts, func(idx int, src AuditEvent) change {
		return change{Ref: src.Ref, From: src.From, To: src.To}
	})
}

func TestNewOrderCreatedEvents(t *testing.T) {
	o := domain.Order{
		ID:     1,
		Status: domain.StatusPending,
		Items: []domain.OrderItem{
			{ID: 11, Status: domain.StatusPending},
			{ID: 12, Status: domain.StatusPending},
		},
	}
	pmt := domain.Payment{ID: 21, Status: domain.PaymentStatusPending}
	evts := NewOrderCreatedEvents(123, o, pmt)
	assert.Equal(t, []change{
		{Ref: EntityRef{Kind: EntityOrder, ID: 1}, To: "PENDING"},
		{Ref: EntityRef{Kind: EntityOrderItem, ID: 11}, To: "PENDING"},
		{Ref: EntityRef{Kind: EntityOrderItem, ID: 12}, To: "PENDING"},
		{Ref: EntityRef{Kind: EntityPayment, ID: 21}, To: "PENDING"},
	}, changes(evts))
	ids := make(map[string]struct{}, len(evts))
	for _, evt := range evts {
		assert.Equal(t, int64(123), evt.ActorID)
		assert.NotZero(t, evt.Ctime)
		ids[evt.ID] = struct{}{}
	}
	assert.Len(t, ids, len(evts))
	assert.Equal(t, "order.create", evts[0].Action)
	assert.Equal(t, "payment.create", evts[3].Action)
}

func TestNewOrderChangedEvents(t *testing.T) {
	testCases := []struct {
		name   string
		before domain.Order
		after  domain.Order
		want   []change
	}{
		{
			name: "取消单个订单项",
			before: domain.Order{ID: 1, Status: domain.StatusPending, Items: []domain.OrderItem{
				{ID: 11, Status: domain.StatusPending},
				{ID: 12, Status: domain.StatusPending},
			}},
			after: domain.Order{ID: 1, Status: domain.StatusPending, Items: []domain.OrderItem{
				{ID: 11, Status: domain.StatusCancelled},
				{ID: 12, Status: domain.StatusPending},
			}},
			want: []change{
				{Ref: EntityRef{Kind: EntityOrderItem, ID: 11}, From: "PENDING", To: "CANCELLED"},
			},
		},
		{
			name: "整单发货",
			before: domain.Order{ID: 1, Status: domain.StatusPaid, Items: []domain.OrderItem{
				{ID: 11, Status: domain.StatusPaid},
				{ID: 12, Status: domain.StatusCancelled},
			}},
			after: domain.Order{ID: 1, Status: domain.StatusShipped, Items: []domain.OrderItem{
				{ID: 11, Status: domain.StatusShipped},
				{ID: 12, Status: domain.StatusCancelled},
			}},
			want: []change{
				{Ref: EntityRef{Kind: EntityOrder, ID: 1}, From: "PAID", To: "SHIPPED"},
				{Ref: EntityRef{Kind: EntityOrderItem, ID: 11}, From: "PAID", To: "SHIPPED"},
			},
		},
		{
			name:   "没有变化",
			before: domain.Order{ID: 1, Status: domain.StatusPaid},
			after:  domain.Order{ID: 1, Status: domain.StatusPaid},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evts := NewOrderChangedEvents("test", 1, tc.before, tc.after)
			if len(tc.want) == 0 {
				assert.Empty(t, evts)
				return
			}
			assert.Equal(t, tc.want, changes(evts))
		})
	}
}

func TestNewPaymentEvent(t *testing.T) {
	evt := NewPaymentEvent("payment.settle", 0, domain.Payment{ID: 7, Status: domain.PaymentStatusSuccess}, domain.PaymentStatusPending)
	assert.Equal(t, change{Ref: EntityRef{Kind: EntityPayment, ID: 7}, From: "PENDING", To: "SUCCESS"}, changes([]AuditEvent{evt})[0])
	assert.Equal(t, "payment:7", evt.MessageKey())

	created := NewPaymentEvent("payment.retry", 1, domain.Payment{ID: 8, Status: domain.PaymentStatusPending}, domain.PaymentStatusUnknown)
	require.Empty(t, created.From)
	assert.Equal(t, "PENDING", created.To)
}
