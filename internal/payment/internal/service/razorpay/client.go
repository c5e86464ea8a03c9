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
	"context"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/payment/internal/domain"
	"github.com/ecodeclub/emall/internal/payment/internal/service"
	"github.com/go-resty/resty/v2"
	"github.com/gotomicro/ego/core/elog"
	"github.com/pkg/errors"
)

var _ service.Gateway = (*Client)(nil)

var remoteStatusToOutcome = map[string]domain.Outcome{
	"captured": domain.OutcomeCaptured,
	"failed":   domain.OutcomeFailed,
}

// Client 基于 REST 接口的网关客户端, 使用 key id / key secret 做 Basic 认证
type Client struct {
	client *resty.Client
	keyID  string
	l      *elog.Component
}

func NewClient(client *resty.Client, keyID string) *Client {
	return &Client{
		client: client,
		keyID:  keyID,
		l:      elog.DefaultLogger,
	}
}

func (c *Client) KeyID() string {
	return c.keyID
}

type createOrderReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type paymentResp struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type paymentsResp struct {
	Count int           `json:"count"`
	Items []paymentResp `json:"items"`
}

type errorResp struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderReq) (domain.RemoteOrder, error) {
	var (
		res    orderResp
		apiErr errorResp
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createOrderReq{
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		}).
		SetResult(&res).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		return domain.RemoteOrder{}, errors.Wrap(err, "请求网关创建订单失败")
	}
	if resp.IsError() {
		return domain.RemoteOrder{}, errors.Errorf("网关创建订单失败: status=%d code=%s desc=%s",
			resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	if res.ID == "" {
		return domain.RemoteOrder{}, errors.New("网关未返回订单号")
	}
	c.l.Debug("网关订单已创建",
		elog.String("receipt", req.Receipt),
		elog.String("gatewayOrderRef", res.ID))
	return domain.RemoteOrder{
		ID:       res.ID,
		Amount:   res.Amount,
		Currency: res.Currency,
		Receipt:  res.Receipt,
		Status:   res.Status,
	}, nil
}

func (c *Client) FetchOrderPayments(ctx context.Context, orderRef string) ([]domain.RemotePayment, error) {
	var (
		res    paymentsResp
		apiErr errorResp
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("orderRef", orderRef).
		SetResult(&res).
		SetError(&apiErr).
		Get("/v1/orders/{orderRef}/payments")
	if err != nil {
		return nil, errors.Wrap(err, "请求网关查询支付失败")
	}
	if resp.IsError() {
		return nil, errors.Errorf("网关查询支付失败: status=%d code=%s desc=%s",
			resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	return slice.Map(res.Items, func(idx int, src paymentResp) domain.RemotePayment {
		return domain.RemotePayment{
			ID:      src.ID,
			OrderID: src.OrderID,
			Status:  src.Status,
			Outcome: remoteStatusToOutcome[src.Status],
		}
	}), nil
}
