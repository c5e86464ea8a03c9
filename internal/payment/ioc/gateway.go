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

package ioc

import (
	"time"

	"github.com/ecodeclub/emall/internal/payment/internal/service/razorpay"
	"github.com/go-resty/resty/v2"
	"github.com/gotomicro/ego/core/econf"
)

const defaultGatewayTimeout = 8 * time.Second

type GatewayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	// Timeout 调用网关的超时时间, 默认 8s
	Timeout time.Duration
}

func InitGatewayConfig() GatewayConfig {
	var cfg GatewayConfig
	err := econf.UnmarshalKey("payment.gateway", &cfg)
	if err != nil {
		panic(err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return cfg
}

func InitRestyClient(cfg GatewayConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
}

func InitGatewayClient(client *resty.Client, cfg GatewayConfig) *razorpay.Client {
	return razorpay.NewClient(client, cfg.KeyID)
}

func InitNotifyHandler(cfg GatewayConfig) *razorpay.NotifyHandler {
	return razorpay.NewNotifyHandler(cfg.WebhookSecret)
}
