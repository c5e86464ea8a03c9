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

// Outcome 网关侧支付结果
type Outcome uint8

const (
	OutcomeUnknown Outcome = iota
	OutcomeCaptured
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCaptured:
		return "captured"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type CreateOrderReq struct {
	// Amount 最小货币单位
	Amount   int64
	Currency string
	// Receipt 我方的支付序列号
	Receipt string
}

// RemoteOrder 网关订单
type RemoteOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// RemotePayment 网关订单下的一次支付
type RemotePayment struct {
	ID      string
	OrderID string
	Status  string
	Outcome Outcome
}

// Notification 解析后的网关回调
type Notification struct {
	Event        string
	OrderRef     string
	PaymentRef   string
	RemoteStatus string
	Outcome      Outcome
}
