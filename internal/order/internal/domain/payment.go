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
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/shopspring/decimal"
)

type PaymentMethod uint8

func (m PaymentMethod) ToUint8() uint8 {
	return uint8(m)
}

func (m PaymentMethod) String() string {
	switch m {
	case PaymentMethodCOD:
		return "COD"
	case PaymentMethodGateway:
		return "GATEWAY"
	default:
		return "UNKNOWN"
	}
}

const (
	PaymentMethodUnknown PaymentMethod = 0
	// PaymentMethodCOD 货到付款
	PaymentMethodCOD     PaymentMethod = 1
	PaymentMethodGateway PaymentMethod = 2
)

func ParsePaymentMethod(s string) PaymentMethod {
	switch s {
	case "COD":
		return PaymentMethodCOD
	case "GATEWAY":
		return PaymentMethodGateway
	default:
		return PaymentMethodUnknown
	}
}

type PaymentStatus uint8

func (s PaymentStatus) ToUint8() uint8 {
	return uint8(s)
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPending:
		return "PENDING"
	case PaymentStatusSuccess:
		return "SUCCESS"
	case PaymentStatusFailed:
		return "FAILED"
	case PaymentStatusRefunded:
		return "REFUNDED"
	default:
		return "UNKNOWN"
	}
}

const (
	PaymentStatusUnknown  PaymentStatus = 0
	PaymentStatusPending  PaymentStatus = 1
	PaymentStatusSuccess  PaymentStatus = 2
	PaymentStatusFailed   PaymentStatus = 3
	PaymentStatusRefunded PaymentStatus = 4
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusSuccess, PaymentStatusFailed},
	PaymentStatusSuccess: {PaymentStatusRefunded},
}

func (s PaymentStatus) CanTransitTo(to PaymentStatus) bool {
	_, ok := slice.Find(paymentTransitions[s], func(src PaymentStatus) bool {
		return src == to
	})
	return ok
}

// IsTerminal 对于回调而言, 非 PENDING 都是终态
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

// Lease 支付记录上的时间戳软锁, 覆盖调用支付网关的那段时间
type Lease struct {
	// HeldAt 毫秒时间戳, 0 表示未持有
	HeldAt int64
	TTL    time.Duration
}

func (l Lease) IsHeld() bool {
	return l.HeldAt > 0
}

// IsFresh 租约已持有且尚未过期
func (l Lease) IsFresh(now time.Time) bool {
	return l.IsHeld() && now.Sub(time.UnixMilli(l.HeldAt)) < l.TTL
}

type Payment struct {
	ID                 int64
	SN                 string
	OrderID            int64
	Method             PaymentMethod
	Status             PaymentStatus
	Amount             decimal.Decimal
	Currency           string
	ProviderOrderRef   string
	ProviderPaymentRef string
	Lease              Lease
	Ctime              int64
	Utime              int64
}

// OlderThan 支付记录创建时间早于 now - d
func (p Payment) OlderThan(now time.Time, d time.Duration) bool {
	return now.Sub(time.UnixMilli(p.Ctime)) > d
}

// RetryAllowed 失败, 或者等待支付超过 cutoff 的记录允许重新发起支付
func (p Payment) RetryAllowed(now time.Time, cutoff time.Duration) bool {
	return p.Status == PaymentStatusFailed ||
		(p.Status == PaymentStatusPending && p.OlderThan(now, cutoff))
}

// MinorAmount 以最小货币单位表示的金额, 四舍五入
func MinorAmount(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// GatewayOrder 发起支付后返回给前端的信息
type GatewayOrder struct {
	OrderSN         string
	GatewayOrderRef string
	PublicKey       string
	MinorAmount     int64
	Currency        string
}

// PaymentState 订单支付状态查询结果
type PaymentState struct {
	OrderSN       string
	OrderStatus   OrderStatus
	PaymentStatus PaymentStatus
	RetryAllowed  bool
}

// Settlement 网关回调的结算结果
type Settlement struct {
	Payment      Payment
	Order        Order
	OrderUpdated bool
}
