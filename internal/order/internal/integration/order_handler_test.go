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

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"github.com/ecodeclub/emall/internal/order/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderHandlerTestSuite struct {
	BaseSuite
}

func TestOrderHandler(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}

func (s *OrderHandlerTestSuite) TestPreviewCheckout() {
	t := s.T()
	phone := s.seedProduct("phone", "100.00", 10, true)
	cover := s.seedProduct("cover", "200.00", 5, true)
	s.seedCart(buyerID, phone, 2)
	s.seedCart(buyerID, cover, 1)
	s.seedAddress(buyerID)

	code, res := doRequest[web.CheckoutPreviewResp](t, s.server, "/order/checkout/preview", buyerID, web.CheckoutPreviewReq{})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "400.00", res.Data.Subtotal)
	assert.Equal(t, "99.00", res.Data.ShippingFee)
	assert.Equal(t, "499.00", res.Data.GrandTotal)
	assert.Equal(t, "Bengaluru", res.Data.Address.City)
	require.Len(t, res.Data.Lines, 2)
	assert.Equal(t, "phone", res.Data.Lines[0].Product.Name)
	assert.Equal(t, "200.00", res.Data.Lines[0].TotalPrice)
	// 试算不占用库存
	assert.Equal(t, int64(10), s.stockOf(phone.Id))
}

func (s *OrderHandlerTestSuite) TestPreviewCheckout_Failed() {
	testCases := []struct {
		name     string
		uid      int64
		before   func(t *testing.T, uid int64)
		wantCode int
		wantErr  *errs.Error
	}{
		{
			name: "购物车为空",
			uid:  201,
			before: func(t *testing.T, uid int64) {
				s.seedAddress(uid)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.EmptyCart,
		},
		{
			name: "没有默认地址",
			uid:  202,
			before: func(t *testing.T, uid int64) {
				s.seedCart(uid, s.seedProduct("phone", "100.00", 10, true), 1)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.NoDefaultAddress,
		},
		{
			name: "商品已下架",
			uid:  203,
			before: func(t *testing.T, uid int64) {
				s.seedCart(uid, s.seedProduct("phone", "100.00", 10, false), 1)
				s.seedAddress(uid)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.ProductUnavailable,
		},
	}
	for _, tc := range testCases {
		s.T().Run(tc.name, func(t *testing.T) {
			tc.before(t, tc.uid)
			code, res := doRequest[map[string]any](t, s.server, "/order/checkout/preview", tc.uid, web.CheckoutPreviewReq{})
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr.Code, res.Code)
		})
	}
}

func (s *OrderHandlerTestSuite) TestCreateOrder() {
	testCases := []struct {
		name     string
		uid      int64
		before   func(t *testing.T, uid int64) dao.Product
		req      web.CreateOrderReq
		wantCode int
		wantErr  *errs.Error
		after    func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp)
	}{
		{
			name: "货到付款",
			uid:  301,
			before: func(t *testing.T, uid int64) dao.Product {
				p := s.seedProduct("phone", "150.00", 10, true)
				s.seedCart(uid, p, 2)
				s.seedAddress(uid)
				return p
			},
			req:      web.CreateOrderReq{PaymentMethod: "COD", RequestID: "req-301"},
			wantCode: http.StatusCreated,
			after: func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {
				assert.False(t, resp.PaymentRequired)
				assert.Equal(t, "PENDING", resp.OrderStatus)
				assert.Equal(t, int64(8), s.stockOf(p.Id))

				o, items := s.findOrder(resp.OrderSN)
				assert.Equal(t, uid, o.BuyerId)
				assertMoney(t, "300", o.Subtotal)
				assertMoney(t, "99", o.ShippingFee)
				assertMoney(t, "399", o.GrandTotal)
				assert.Equal(t, "Asha", o.AddressName)
				require.Len(t, items, 1)
				assert.Equal(t, int64(2), items[0].Quantity)
				assert.Equal(t, domain.StatusPending.ToUint8(), items[0].Status)

				pmts := s.findPayments(o.Id)
				require.Len(t, pmts, 1)
				assert.Equal(t, domain.PaymentMethodCOD.ToUint8(), pmts[0].Method)
				assert.Equal(t, domain.PaymentStatusPending.ToUint8(), pmts[0].Status)
				assertMoney(t, "399", pmts[0].Amount)
				assert.Equal(t, "INR", pmts[0].Currency)
				assert.False(t, pmts[0].ProviderOrderRef.Valid)

				var carts int64
				require.NoError(t, s.db.Model(&dao.CartItem{}).Where("buyer_id = ?", uid).Count(&carts).Error)
				assert.Zero(t, carts)
			},
		},
		{
			name: "在线支付且包邮",
			uid:  302,
			before: func(t *testing.T, uid int64) dao.Product {
				p := s.seedProduct("tablet", "600.00", 1, true)
				s.seedCart(uid, p, 1)
				s.seedAddress(uid)
				return p
			},
			req:      web.CreateOrderReq{PaymentMethod: "GATEWAY"},
			wantCode: http.StatusCreated,
			after: func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {
				assert.True(t, resp.PaymentRequired)
				assert.Zero(t, s.stockOf(p.Id))
				o, _ := s.findOrder(resp.OrderSN)
				assertMoney(t, "0", o.ShippingFee)
				assertMoney(t, "600", o.GrandTotal)
			},
		},
		{
			name: "库存不足",
			uid:  303,
			before: func(t *testing.T, uid int64) dao.Product {
				p := s.seedProduct("phone", "100.00", 1, true)
				s.seedCart(uid, p, 2)
				s.seedAddress(uid)
				return p
			},
			req:      web.CreateOrderReq{PaymentMethod: "COD"},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.ProductUnavailable,
			after: func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {
				assert.Equal(t, int64(1), s.stockOf(p.Id))
				var carts int64
				require.NoError(t, s.db.Model(&dao.CartItem{}).Where("buyer_id = ?", uid).Count(&carts).Error)
				assert.Equal(t, int64(1), carts)
			},
		},
		{
			name: "同一商品多行合计超出库存",
			uid:  304,
			before: func(t *testing.T, uid int64) dao.Product {
				p := s.seedProduct("phone", "100.00", 3, true)
				s.seedCart(uid, p, 2)
				s.seedCart(uid, p, 2)
				s.seedAddress(uid)
				return p
			},
			req:      web.CreateOrderReq{PaymentMethod: "COD"},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.ProductUnavailable,
			after: func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {
				assert.Equal(t, int64(3), s.stockOf(p.Id))
			},
		},
		{
			name: "支付方式非法",
			uid:  305,
			before: func(t *testing.T, uid int64) dao.Product {
				p := s.seedProduct("phone", "100.00", 3, true)
				s.seedCart(uid, p, 1)
				s.seedAddress(uid)
				return p
			},
			req:      web.CreateOrderReq{PaymentMethod: "CASH"},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.InvalidPayMethod,
			after: func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {
				assert.Equal(t, int64(3), s.stockOf(p.Id))
			},
		},
		{
			name: "购物车为空",
			uid:  306,
			before: func(t *testing.T, uid int64) dao.Product {
				s.seedAddress(uid)
				return dao.Product{}
			},
			req:      web.CreateOrderReq{PaymentMethod: "COD"},
			wantCode: http.StatusBadRequest,
			wantErr:  errs.EmptyCart,
			after:    func(t *testing.T, uid int64, p dao.Product, resp web.CreateOrderResp) {},
		},
	}
	for _, tc := range testCases {
		s.T().Run(tc.name, func(t *testing.T) {
			p := tc.before(t, tc.uid)
			code, res := doRequest[web.CreateOrderResp](t, s.server, "/order/create", tc.uid, tc.req)
			require.Equal(t, tc.wantCode, code)
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr.Code, res.Code)
			}
			tc.after(t, tc.uid, p, res.Data)
		})
	}
}

func (s *OrderHandlerTestSuite) TestCreateOrder_ResponseKeys() {
	t := s.T()
	const uid = 310
	s.seedAddress(uid)
	s.seedCart(uid, s.seedProduct("phone", "100.00", 5, true), 1)

	code, res := doRequest[map[string]any](t, s.server, "/order/create", uid, web.CreateOrderReq{PaymentMethod: "GATEWAY"})
	require.Equal(t, http.StatusCreated, code)
	assert.Len(t, res.Data, 3)
	sn, ok := res.Data["orderSN"].(string)
	require.True(t, ok)
	o, _ := s.findOrder(sn)
	assert.Equal(t, int64(uid), o.BuyerId)
	assert.Equal(t, "PENDING", res.Data["orderStatus"])
	assert.Equal(t, true, res.Data["paymentRequired"])
}

func (s *OrderHandlerTestSuite) TestCreateOrder_RequestID() {
	t := s.T()
	p := s.seedProduct("phone", "100.00", 10, true)
	s.seedCart(buyerID, p, 1)
	req := web.CreateOrderReq{PaymentMethod: "COD", RequestID: "req-dup"}

	// 失败的请求不占用请求 ID
	code, res := doRequest[web.CreateOrderResp](t, s.server, "/order/create", buyerID, req)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.NoDefaultAddress.Code, res.Code)

	s.seedAddress(buyerID)
	code, _ = doRequest[web.CreateOrderResp](t, s.server, "/order/create", buyerID, req)
	require.Equal(t, http.StatusCreated, code)

	s.seedCart(buyerID, p, 1)
	code, res = doRequest[web.CreateOrderResp](t, s.server, "/order/create", buyerID, req)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, errs.DuplicateRequest.Code, res.Code)

	var total int64
	require.NoError(t, s.db.Model(&dao.Order{}).Where("buyer_id = ?", buyerID).Count(&total).Error)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(9), s.stockOf(p.Id))
}

func (s *OrderHandlerTestSuite) TestCreateOrder_Concurrent() {
	t := s.T()
	const (
		stock  = 3
		buyers = 8
	)
	p := s.seedProduct("limited", "100.00", stock, true)
	for i := int64(0); i < buyers; i++ {
		s.seedCart(1000+i, p, 1)
		s.seedAddress(1000 + i)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := int64(0); i < buyers; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			code, _ := doRequest[web.CreateOrderResp](t, s.server, "/order/create", uid, web.CreateOrderReq{PaymentMethod: "COD"})
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}(1000 + i)
	}
	wg.Wait()

	assert.Equal(t, stock, codes[http.StatusCreated])
	assert.Equal(t, buyers-stock, codes[http.StatusBadRequest])
	assert.Zero(t, s.stockOf(p.Id))
	var total int64
	require.NoError(t, s.db.Model(&dao.Order{}).Count(&total).Error)
	assert.Equal(t, int64(stock), total)
}

func (s *OrderHandlerTestSuite) TestListAndDetail() {
	t := s.T()
	p := s.seedProduct("phone", "100.00", 10, true)
	s.seedAddress(buyerID)
	sns := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		s.seedCart(buyerID, p, 1)
		code, res := doRequest[web.CreateOrderResp](t, s.server, "/order/create", buyerID, web.CreateOrderReq{PaymentMethod: "COD"})
		require.Equal(t, http.StatusCreated, code)
		sns = append(sns, res.Data.OrderSN)
	}

	code, list := doRequest[web.ListOrdersResp](t, s.server, "/order/list", buyerID, web.ListOrdersReq{Limit: 2})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(3), list.Data.Total)
	require.Len(t, list.Data.Orders, 2)
	// 新订单在前
	assert.Equal(t, sns[2], list.Data.Orders[0].SN)
	assert.Zero(t, list.Data.Orders[0].BuyerID)

	code, detail := doRequest[web.Order](t, s.server, "/order/detail", buyerID, web.OrderSNReq{SN: sns[0]})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PENDING", detail.Data.Status)
	assert.Equal(t, "199.00", detail.Data.GrandTotal)
	require.Len(t, detail.Data.Items, 1)
	assert.Equal(t, "phone", detail.Data.Items[0].Product.Name)

	code, res := doRequest[map[string]any](t, s.server, "/order/detail", 999, web.OrderSNReq{SN: sns[0]})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errs.OrderNotFound.Code, res.Code)

	code, all := doRequest[web.ListOrdersResp](t, s.admin, "/order/list", adminID, web.ListOrdersReq{})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(3), all.Data.Total)
	assert.Equal(t, buyerID, all.Data.Orders[0].BuyerID)
}
