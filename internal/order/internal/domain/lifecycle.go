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

package domain

// Offender 导致状态变更失败的实体, ItemID 为 0 表示订单本身
type Offender struct {
	ItemID int64
	Status OrderStatus
}

func (o *Order) itemIndex(itemID int64) int {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// HasItem 订单是否包含该订单项
func (o *Order) HasItem(itemID int64) bool {
	return o.itemIndex(itemID) >= 0
}

// Clone 深拷贝, 用于对比变更前后的状态
func (o *Order) Clone() Order {
	res := *o
	res.Items = append([]OrderItem(nil), o.Items...)
	return res
}

// allItems 除已取消的订单项之外, 其余订单项都满足 fn; 没有这样的订单项时返回 false
func (o *Order) allItems(fn func(item OrderItem) bool) bool {
	matched := false
	for _, item := range o.Items {
		if item.Status == StatusCancelled {
			continue
		}
		if !fn(item) {
			return false
		}
		matched = true
	}
	return matched
}

// Cancel 取消整个订单, 订单或任意订单项已进入履约或售后流程时拒绝
func (o *Order) Cancel() (Offender, bool) {
	if !o.Status.CanTransitTo(StatusCancelled) {
		return Offender{Status: o.Status}, false
	}
	if item, ok := o.FirstItem(func(item OrderItem) bool {
		return !item.Status.CanTransitTo(StatusCancelled)
	}); ok {
		return Offender{ItemID: item.ID, Status: item.Status}, false
	}
	o.Status = StatusCancelled
	for i := range o.Items {
		o.Items[i].Status = StatusCancelled
	}
	return Offender{}, true
}

// CancelItem 取消单个订单项, 全部订单项都被取消时订单随之取消
func (o *Order) CancelItem(itemID int64) (Offender, bool) {
	idx := o.itemIndex(itemID)
	if idx < 0 {
		return Offender{ItemID: itemID}, false
	}
	item := &o.Items[idx]
	if !item.Status.CanTransitTo(StatusCancelled) {
		return Offender{ItemID: item.ID, Status: item.Status}, false
	}
	item.Status = StatusCancelled
	if _, ok := o.FirstItem(func(item OrderItem) bool {
		return item.Status != StatusCancelled
	}); !ok {
		o.Status = StatusCancelled
	}
	return Offender{}, true
}

// RequestReturn 整单退货, 要求订单已签收, 未取消且未退货的订单项都已签收
func (o *Order) RequestReturn() (Offender, bool) {
	if o.Status != StatusDelivered {
		return Offender{Status: o.Status}, false
	}
	for _, item := range o.Items {
		switch item.Status {
		case StatusDelivered, StatusCancelled, StatusReturned:
		default:
			return Offender{ItemID: item.ID, Status: item.Status}, false
		}
	}
	if _, ok := o.FirstItem(func(item OrderItem) bool {
		return item.Status == StatusDelivered
	}); !ok {
		return Offender{Status: o.Status}, false
	}
	o.Status = StatusReturnRequested
	for i := range o.Items {
		if o.Items[i].Status == StatusDelivered {
			o.Items[i].Status = StatusReturnRequested
		}
	}
	return Offender{}, true
}

// RequestItemReturn 单个订单项退货, 未取消的订单项都已申请退货或已退货时订单随之变为退货中
func (o *Order) RequestItemReturn(itemID int64) (Offender, bool) {
	idx := o.itemIndex(itemID)
	if idx < 0 {
		return Offender{ItemID: itemID}, false
	}
	item := &o.Items[idx]
	if item.Status != StatusDelivered {
		return Offender{ItemID: item.ID, Status: item.Status}, false
	}
	item.Status = StatusReturnRequested
	if o.allItems(func(item OrderItem) bool {
		return item.Status == StatusReturnRequested || item.Status == StatusReturned
	}) && o.Status.CanTransitTo(StatusReturnRequested) {
		o.Status = StatusReturnRequested
	}
	return Offender{}, true
}

// Ship 发货, 已支付的订单, 或者货到付款的待支付订单
func (o *Order) Ship(method PaymentMethod) (Offender, bool) {
	switch {
	case o.Status == StatusPaid:
	case o.Status == StatusPending && method == PaymentMethodCOD:
	default:
		return Offender{Status: o.Status}, false
	}
	o.Status = StatusShipped
	for i := range o.Items {
		if o.Items[i].Status.CanTransitTo(StatusShipped) {
			o.Items[i].Status = StatusShipped
		}
	}
	return Offender{}, true
}

// Deliver 签收
func (o *Order) Deliver() (Offender, bool) {
	if !o.Status.CanTransitTo(StatusDelivered) {
		return Offender{Status: o.Status}, false
	}
	o.Status = StatusDelivered
	for i := range o.Items {
		if o.Items[i].Status == StatusShipped {
			o.Items[i].Status = StatusDelivered
		}
	}
	return Offender{}, true
}

// CompleteReturn 退货入库, 申请了退货的订单项变为已退货;
// 未取消的订单项全部退货后订单变为已退货, 否则只是部分退货, 订单保持已签收
func (o *Order) CompleteReturn() (Offender, bool) {
	if o.Status != StatusReturnRequested && o.Status != StatusDelivered {
		return Offender{Status: o.Status}, false
	}
	returned := false
	for i := range o.Items {
		if o.Items[i].Status == StatusReturnRequested {
			o.Items[i].Status = StatusReturned
			returned = true
		}
	}
	if !returned {
		return Offender{Status: o.Status}, false
	}
	if o.allItems(func(item OrderItem) bool {
		return item.Status == StatusReturned
	}) {
		o.Status = StatusReturned
	}
	return Offender{}, true
}
