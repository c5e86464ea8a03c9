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
	"errors"

	"github.com/ecodeclub/emall/internal/payment/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("回调签名非法")
	ErrIgnoredEvent     = errors.New("忽略的回调事件")
	ErrInvalidPayload   = errors.New("回调内容非法")
)

//go:generate mockgen -source=./gateway.go -package=paymentmocks -destination=../../mocks/gateway.mock.go Gateway NotifyParser
type Gateway interface {
	// KeyID 前端唤起收银台时使用的公钥
	KeyID() string
	CreateOrder(ctx context.Context, req domain.CreateOrderReq) (domain.RemoteOrder, error)
	FetchOrderPayments(ctx context.Context, orderRef string) ([]domain.RemotePayment, error)
}

// NotifyParser 校验并解析网关回调
type NotifyParser interface {
	// Verify 签名不合法时返回 ErrInvalidSignature
	Verify(body []byte, signature string) error
	// Parse 非关心的事件返回 ErrIgnoredEvent, 缺少必要字段返回 ErrInvalidPayload
	Parse(body []byte) (domain.Notification, error)
}
