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

package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ecodeclub/emall/internal/payment/internal/domain"
	"github.com/ecodeclub/emall/internal/payment/internal/service"
	"github.com/tidwall/gjson"
)

var _ service.NotifyParser = (*NotifyHandler)(nil)

var eventToOutcome = map[string]domain.Outcome{
	"payment.captured": domain.OutcomeCaptured,
	"payment.failed":   domain.OutcomeFailed,
}

// NotifyHandler 回调签名为原始请求体的 HMAC-SHA256, 十六进制编码
type NotifyHandler struct {
	secret []byte
}

func NewNotifyHandler(webhookSecret string) *NotifyHandler {
	return &NotifyHandler{secret: []byte(webhookSecret)}
}

func (h *NotifyHandler) Verify(body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: 缺少签名", service.ErrInvalidSignature)
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: %s", service.ErrInvalidSignature, err.Error())
	}
	if !hmac.Equal(got, Sign(h.secret, body)) {
		return service.ErrInvalidSignature
	}
	return nil
}

func (h *NotifyHandler) Parse(body []byte) (domain.Notification, error) {
	if !gjson.ValidBytes(body) {
		return domain.Notification{}, fmt.Errorf("%w: 不是合法的 JSON", service.ErrInvalidPayload)
	}
	res := gjson.ParseBytes(body)
	event := res.Get("event").String()
	outcome, ok := eventToOutcome[event]
	if !ok {
		return domain.Notification{}, fmt.Errorf("%w: %s", service.ErrIgnoredEvent, event)
	}
	entity := res.Get("payload.payment.entity")
	n := domain.Notification{
		Event:        event,
		OrderRef:     entity.Get("order_id").String(),
		PaymentRef:   entity.Get("id").String(),
		RemoteStatus: entity.Get("status").String(),
		Outcome:      outcome,
	}
	if n.OrderRef == "" || n.PaymentRef == "" {
		return domain.Notification{}, fmt.Errorf("%w: 缺少 order_id 或 payment id", service.ErrInvalidPayload)
	}
	return n, nil
}

// Sign 计算回调签名
func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
