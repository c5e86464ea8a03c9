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
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/ekit/iox"
	"github.com/ecodeclub/emall/internal/order"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"github.com/ecodeclub/emall/internal/order/internal/web"
	"github.com/ecodeclub/emall/internal/payment"
	paymentioc "github.com/ecodeclub/emall/internal/payment/ioc"
	paymentmocks "github.com/ecodeclub/emall/internal/payment/mocks"
	"github.com/ecodeclub/emall/internal/test"
	testioc "github.com/ecodeclub/emall/internal/test/ioc"
	"github.com/ecodeclub/ginx/session"
	"github.com/ecodeclub/mq-api"
	"github.com/ego-component/egorm"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

const (
	buyerID     int64 = 123
	adminID     int64 = 1
	uidHeader         = "X-Test-Uid"
	keyID             = "rzp_test_key"
	webhookPath       = "/payment/webhook"
)

// BaseSuite 使用 sqlite 与 miniredis, 支付网关使用 mock
type BaseSuite struct {
	suite.Suite
	db    *egorm.Component
	cache ecache.Cache
	q     mq.MQ
	cfg   payment.Config

	ctrl    *gomock.Controller
	gateway *paymentmocks.MockGateway
	module  *order.Module
	server  *egin.Component
	admin   *egin.Component
}

func (s *BaseSuite) SetupSuite() {
	testioc.InitConfig()
	s.db = testioc.InitDB()
	require.NoError(s.T(), dao.InitTables(s.db))
	s.cache = testioc.InitCache()
	s.q = testioc.InitMQ()
	s.cfg = paymentioc.InitGatewayConfig()
}

func (s *BaseSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = paymentmocks.NewMockGateway(s.ctrl)
	s.gateway.EXPECT().KeyID().Return(keyID).AnyTimes()
	m, err := order.InitModule(s.db, s.cache, s.q, &payment.Module{
		Gateway:  s.gateway,
		Notifier: paymentioc.InitNotifyHandler(s.cfg),
		Cfg:      s.cfg,
	})
	require.NoError(s.T(), err)
	s.module = m

	econf.Set("server", map[string]any{"contextTimeout": "1s"})
	s.server = egin.Load("server").Build()
	// 回调接口不需要登录
	m.PaymentHandler.PublicRoutes(s.server.Engine)
	s.server.Use(testSession(buyerID, nil))
	m.Handler.PrivateRoutes(s.server.Engine)
	m.PaymentHandler.PrivateRoutes(s.server.Engine)

	s.admin = egin.Load("server").Build()
	s.admin.Use(testSession(adminID, map[string]string{"admin": "true"}))
	m.AdminHandler.PrivateRoutes(s.admin.Engine)
}

func (s *BaseSuite) TearDownTest() {
	s.ctrl.Finish()
	for _, m := range []any{&dao.Order{}, &dao.OrderItem{}, &dao.Payment{}, &dao.Product{}, &dao.CartItem{}, &dao.Address{}} {
		err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error
		require.NoError(s.T(), err)
	}
}

// testSession 请求头中带了 uid 时以它为准, 方便模拟多个买家
func testSession(defaultUID int64, data map[string]string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uid := defaultUID
		if v := ctx.GetHeader(uidHeader); v != "" {
			uid, _ = strconv.ParseInt(v, 10, 64)
		}
		ctx.Set(session.CtxSessionKey, session.NewMemorySession(session.Claims{
			Uid:  uid,
			Data: data,
		}))
	}
}

func doRequest[T any](t *testing.T, server *egin.Component, path string, uid int64, body any) (int, test.Result[T]) {
	req, err := http.NewRequest(http.MethodPost, path, iox.NewJSONReader(body))
	require.NoError(t, err)
	req.Header.Set("content-type", "application/json")
	req.Header.Set(uidHeader, strconv.FormatInt(uid, 10))
	recorder := test.NewJSONResponseRecorder[T]()
	server.ServeHTTP(recorder, req)
	if recorder.Body.Len() == 0 {
		return recorder.Code, test.Result[T]{}
	}
	return recorder.Code, recorder.MustScan()
}

func (s *BaseSuite) seedProduct(name string, price string, stock int64, active bool) dao.Product {
	now := time.Now().UnixMilli()
	p := dao.Product{
		Slug:         fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		Name:         name,
		BrandName:    "Acme",
		BrandSlug:    "acme",
		CategoryName: "Gadgets",
		CategorySlug: "gadgets",
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		IsActive:     active,
		Ctime:        now,
		Utime:        now,
	}
	require.NoError(s.T(), s.db.Create(&p).Error)
	return p
}

func (s *BaseSuite) seedCart(uid int64, p dao.Product, quantity int64) {
	now := time.Now().UnixMilli()
	require.NoError(s.T(), s.db.Create(&dao.CartItem{
		BuyerId:    uid,
		ProductId:  p.Id,
		UnitPrice:  p.Price,
		Quantity:   quantity,
		TotalPrice: p.Price.Mul(decimal.NewFromInt(quantity)),
		Ctime:      now,
		Utime:      now,
	}).Error)
}

func (s *BaseSuite) seedAddress(uid int64) {
	now := time.Now().UnixMilli()
	require.NoError(s.T(), s.db.Create(&dao.Address{
		BuyerId:    uid,
		Name:       "Asha",
		Phone:      "9999999999",
		Line:       "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		IsDefault:  true,
		Ctime:      now,
		Utime:      now,
	}).Error)
}

func (s *BaseSuite) stockOf(id int64) int64 {
	var p dao.Product
	require.NoError(s.T(), s.db.Where("id = ?", id).First(&p).Error)
	return p.Stock
}

func (s *BaseSuite) findOrder(sn string) (dao.Order, []dao.OrderItem) {
	var o dao.Order
	require.NoError(s.T(), s.db.Where("sn = ?", sn).First(&o).Error)
	var items []dao.OrderItem
	require.NoError(s.T(), s.db.Where("order_id = ?", o.Id).Order("id").Find(&items).Error)
	return o, items
}

func (s *BaseSuite) findPayments(orderID int64) []dao.Payment {
	var res []dao.Payment
	require.NoError(s.T(), s.db.Where("order_id = ?", orderID).Order("id").Find(&res).Error)
	return res
}

// agePayment 把支付记录的创建时间往前拨, 模拟等待支付超时
func (s *BaseSuite) agePayment(id int64, d time.Duration) {
	err := s.db.Model(&dao.Payment{}).Where("id = ?", id).
		Update("ctime", time.Now().Add(-d).UnixMilli()).Error
	require.NoError(s.T(), err)
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *BaseSuite) postWebhook(body []byte, signature string) int {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, webhookPath, bytes.NewReader(body))
	require.NoError(s.T(), err)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Razorpay-Signature", signature)
	recorder := test.NewJSONResponseRecorder[any]()
	s.server.ServeHTTP(recorder, req)
	return recorder.Code
}

func webhookBody(event, orderRef, paymentRef, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":%q}}}}`,
		event, paymentRef, orderRef, status))
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type cartLine struct {
	p   dao.Product
	qty int64
}

// placeOrder 通过接口下单, 返回订单序列号
func (s *BaseSuite) placeOrder(uid int64, method string, lines ...cartLine) string {
	t := s.T()
	var addrs int64
	require.NoError(t, s.db.Model(&dao.Address{}).Where("buyer_id = ?", uid).Count(&addrs).Error)
	if addrs == 0 {
		s.seedAddress(uid)
	}
	for _, l := range lines {
		s.seedCart(uid, l.p, l.qty)
	}
	code, res := doRequest[web.CreateOrderResp](t, s.server, "/order/create", uid, web.CreateOrderReq{PaymentMethod: method})
	require.Equal(t, http.StatusCreated, code)
	return res.Data.OrderSN
}
