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

package payment

import (
	"github.com/ecodeclub/emall/internal/payment/internal/domain"
	"github.com/ecodeclub/emall/internal/payment/internal/service"
	"github.com/ecodeclub/emall/internal/payment/ioc"
)

type (
	Gateway        = service.Gateway
	NotifyParser   = service.NotifyParser
	CreateOrderReq = domain.CreateOrderReq
	RemoteOrder    = domain.RemoteOrder
	RemotePayment  = domain.RemotePayment
	Notification   = domain.Notification
	Outcome        = domain.Outcome
	Config         = ioc.GatewayConfig
)

const (
	OutcomeUnknown  = domain.OutcomeUnknown
	OutcomeCaptured = domain.OutcomeCaptured
	OutcomeFailed   = domain.OutcomeFailed
)

var (
	ErrInvalidSignature = service.ErrInvalidSignature
	ErrIgnoredEvent     = service.ErrIgnoredEvent
	ErrInvalidPayload   = service.ErrInvalidPayload
)

type Module struct {
	Gateway  Gateway
	Notifier NotifyParser
	Cfg      Config
}
