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

//go:build wireinject

package payment

import (
	"github.com/ecodeclub/emall/internal/payment/internal/service"
	"github.com/ecodeclub/emall/internal/payment/internal/service/razorpay"
	"github.com/ecodeclub/emall/internal/payment/ioc"
	"github.com/google/wire"
)

var GatewaySet = wire.NewSet(
	ioc.InitRestyClient,
	ioc.InitGatewayClient,
	ioc.InitNotifyHandler,
	wire.Bind(new(service.Gateway), new(*razorpay.Client)),
	wire.Bind(new(service.NotifyParser), new(*razorpay.NotifyHandler)),
)

func InitModule() (*Module, error) {
	wire.Build(
		ioc.InitGatewayConfig,
		GatewaySet,
		wire.Struct(new(Module), "*"),
	)
	return new(Module), nil
}
