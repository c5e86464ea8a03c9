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

package web

import (
	"net/http"

	"github.com/ecodeclub/emall/internal/order/internal/service"
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/ginx/session"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

// SignatureHeader 网关回调签名所在的请求头
const SignatureHeader = "X-Razorpay-Signature"

type PaymentHandler struct {
	svc       service.PaymentService
	reconcile service.ReconcileService
	l         *elog.Component
}

func NewPaymentHandler(svc service.PaymentService, reconcile service.ReconcileService) *PaymentHandler {
	return &PaymentHandler{svc: svc, reconcile: reconcile, l: elog.DefaultLogger}
}

func (h *PaymentHandler) PrivateRoutes(server *gin.Engine) {
	g := server.Group("/payment")
	g.POST("/initiate", bs[PaymentReq](http.StatusOK, h.Initiate))
	g.POST("/retry", bs[PaymentReq](http.StatusOK, h.Retry))
	g.POST("/status", bs[PaymentReq](http.StatusOK, h.Status))
}

// PublicRoutes 网关回调不需要登录, 依靠签名校验
func (h *PaymentHandler) PublicRoutes(server *gin.Engine) {
	server.POST("/payment/webhook", h.Webhook)
}

func (h *PaymentHandler) Initiate(ctx *ginx.Context, req PaymentReq, sess session.Session) (ginx.Result, error) {
	res, err := h.svc.Initiate(ctx.Request.Context(), sess.Claims().Uid, req.OrderSN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Data: toGatewayOrderVO(res)}, nil
}

func (h *PaymentHandler) Retry(ctx *ginx.Context, req PaymentReq, sess session.Session) (ginx.Result, error) {
	res, err := h.svc.Retry(ctx.Request.Context(), sess.Claims().Uid, req.OrderSN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Data: toGatewayOrderVO(res)}, nil
}

func (h *PaymentHandler) Status(ctx *ginx.Context, req PaymentReq, sess session.Session) (ginx.Result, error) {
	res, err := h.svc.Status(ctx.Request.Context(), sess.Claims().Uid, req.OrderSN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: PaymentStatusResp{
			OrderSN:       res.OrderSN,
			OrderStatus:   res.OrderStatus.String(),
			PaymentStatus: res.PaymentStatus.String(),
			RetryAllowed:  res.RetryAllowed,
		},
	}, nil
}

// Webhook 无论处理结果如何都应答 200, 避免网关无意义地重复投递
func (h *PaymentHandler) Webhook(ctx *gin.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		h.l.Warn("读取网关回调失败", elog.FieldErr(err))
		ctx.JSON(http.StatusOK, okResult)
		return
	}
	h.reconcile.HandleWebhook(ctx.Request.Context(), body, ctx.GetHeader(SignatureHeader))
	ctx.JSON(http.StatusOK, okResult)
}
