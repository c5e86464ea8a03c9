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

import (
	"github.com/ecodeclub/ekit/slice"
	"github.com/shopspring/decimal"
)

// OrderStatus 订单与订单项共用同一套状态
type OrderStatus uint8

func (s OrderStatus) ToUint8() uint8 {
	return uint8(s)
}

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusPaid:
		return "PAID"
	case StatusShipped:
		return "SHIPPED"
	case StatusDelivered:
		return "DELIVERED"
	case StatusReturnRequested:
		return "RETURN_REQUESTED"
	case StatusReturned:
		return "RETURNED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

const (
	StatusUnknown         OrderStatus = 0
	StatusPending         OrderStatus = 1
	StatusPaid            OrderStatus = 2
	StatusShipped         OrderStatus = 3
	StatusDelivered       OrderStatus = 4
	StatusReturnRequested OrderStatus = 5
	StatusReturned        OrderStatus = 6
	StatusCancelled       OrderStatus = 7
)

// PENDING -> SHIPPED 只允许货到付款的订单, 由调用方校验;
// DELIVERED -> RETURNED 发生在分批退货的最后一批入库时
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusPaid, StatusShipped, StatusCancelled},
	StatusPaid:            {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered},
	StatusDelivered:       {StatusReturnRequested, StatusReturned},
	StatusReturnRequested: {StatusReturned},
}

func (s OrderStatus) CanTransitTo(to OrderStatus) bool {
	_, ok := slice.Find(orderTransitions[s], func(src OrderStatus) bool {
		return src == to
	})
	return ok
}

// BlocksPayment 已发货、已签收、已取消及退货中/已退货的订单项不能再发起支付
func (s OrderStatus) BlocksPayment() bool {
	return s != StatusPending && s != StatusPaid
}

// Address 下单时的收货地址快照, 订单创建后不再变化
type Address struct {
	Name       string
	Phone      string
	Line       string
	City       string
	State      string
	PostalCode string
}

type Order struct {
	ID          int64
	SN          string
	BuyerID     int64
	Status      OrderStatus
	Address     Address
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	GrandTotal  decimal.Decimal
	Items       []OrderItem
	Ctime       int64
	Utime       int64
}

// FirstItem 返回第一个满足条件的订单项
func (o Order) FirstItem(fn func(item OrderItem) bool) (OrderItem, bool) {
	return slice.Find(o.Items, fn)
}

type Product struct {
	ID           int64
	Name         string
	Slug         string
	BrandName    string
	BrandSlug    string
	CategoryName string
	CategorySlug string
}

type OrderItem struct {
	ID         int64
	OrderID    int64
	Product    Product
	UnitPrice  decimal.Decimal
	Quantity   int64
	TotalPrice decimal.Decimal
	Status     OrderStatus
	Ctime      int64
	Utime      int64
}

// CreatedOrder 下单结果
type CreatedOrder struct {
	ID              int64
	SN              string
	Status          OrderStatus
	PaymentRequired bool
}
