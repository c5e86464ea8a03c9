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
	"encoding/hex"
	"testing"

	"github.com/ecodeclub/emall/internal/payment/internal/domain"
	"github.com/ecodeclub/emall/internal/payment/internal/service"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_test"

func TestNotifyHandler_Verify(t *testing.T) {
	t.Parallel()
	body := []byte(`{"event":"payment.captured"}`)
	valid := hex.EncodeToString(Sign([]byte(testWebhookSecret), body))
	testCases := []struct {
		name      string
		body      []byte
		signature string
		wantErr   error
	}{
		{
			name:      "签名正确",
			body:      body,
			signature: valid,
		},
		{
			name:      "缺少签名",
			body:      body,
			signature: "",
			wantErr:   service.ErrInvalidSignature,
		},
		{
			name:      "签名不是十六进制",
			body:      body,
			signature: "not-hex",
			wantErr:   service.ErrInvalidSignature,
		},
		{
			name:      "请求体被篡改",
			body:      []byte(`{"event":"payment.failed"}`),
			signature: valid,
			wantErr:   service.ErrInvalidSignature,
		},
		{
			name:      "使用了其他密钥",
			body:      body,
			signature: hex.EncodeToString(Sign([]byte("other"), body)),
			wantErr:   service.ErrInvalidSignature,
		},
	}
	h := NewNotifyHandler(testWebhookSecret)
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := h.Verify(tc.body, tc.signature)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNotifyHandler_Parse(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		body    string
		want    domain.Notification
		wantErr error
	}{
		{
			name: "支付成功",
			body: `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","status":"captured"}}}}`,
			want: domain.Notification{
				Event:        "payment.captured",
				OrderRef:     "order_1",
				PaymentRef:   "pay_1",
				RemoteStatus: "captured",
				Outcome:      domain.OutcomeCaptured,
			},
		},
		{
			name: "支付失败",
			body: `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_1","status":"failed"}}}}`,
			want: domain.Notification{
				Event:        "payment.failed",
				OrderRef:     "order_1",
				PaymentRef:   "pay_2",
				RemoteStatus: "failed",
				Outcome:      domain.OutcomeFailed,
			},
		},
		{
			name:    "忽略的事件",
			body:    `{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_3","order_id":"order_1"}}}}`,
			wantErr: service.ErrIgnoredEvent,
		},
		{
			name:    "缺少订单号",
			body:    `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_4"}}}}`,
			wantErr: service.ErrInvalidPayload,
		},
		{
			name:    "非法JSON",
			body:    `{"event":`,
			wantErr: service.ErrInvalidPayload,
		},
	}
	h := NewNotifyHandler(testWebhookSecret)
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n, err := h.Parse([]byte(tc.body))
			assert.ErrorIs(t, err, tc.wantErr)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, n)
		})
	}
}
