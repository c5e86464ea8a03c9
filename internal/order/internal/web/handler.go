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

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/service"
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/ginx/session"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc       service.OrderService
	lifecycle service.LifecycleService
}

func NewHandler(svc service.OrderService, lifecycle service.LifecycleService) *Handler {
	return &Handler{svc: svc, lifecycle: lifecycle}
}

func (h *Handler) PrivateRoutes(server *gin.Engine) {
	g := server.Group("/order")
	g.POST("/checkout/preview", bs[CheckoutPreviewReq](http.StatusOK, h.PreviewCheckout))
	g.POST("/create", bs[CreateOrderReq](http.StatusCreated, h.CreateOrder))
	g.POST("/detail", bs[OrderSNReq](http.StatusOK, h.RetrieveOrderDetail))
	g.POST("/list", bs[ListOrdersReq](http.StatusOK, h.ListOrders))
	g.POST("/cancel", bs[OrderSNReq](http.StatusOK, h.CancelOrder))
	g.POST("/item/cancel", bs[OrderItemReq](http.StatusOK, h.CancelOrderItem))
	g.POST("/return", bs[OrderSNReq](http.StatusOK, h.RequestReturn))
	g.POST("/item/return", bs[OrderItemReq](http.StatusOK, h.RequestItemReturn))
}

func (h *Handler) PublicRoutes(_ *gin.Engine) {}

// PreviewCheckout 根据购物车试算金额, 此时不锁库存
func (h *Handler) PreviewCheckout(ctx *ginx.Context, _ CheckoutPreviewReq, sess session.Session) (ginx.Result, error) {
	c, err := h.svc.PreviewCheckout(ctx.Request.Context(), sess.Claims().Uid)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Data: toCheckoutVO(c)}, nil
}

// CreateOrder 把购物车转为订单
func (h *Handler) CreateOrder(ctx *ginx.Context, req CreateOrderReq, sess session.Session) (ginx.Result, error) {
	method := domain.ParsePaymentMethod(req.PaymentMethod)
	if method == domain.PaymentMethodUnknown {
		return systemErrorResult, errs.InvalidPayMethod.With("paymentMethod", req.PaymentMethod)
	}
	res, err := h.svc.CreateOrder(ctx.Request.Context(), sess.Claims().Uid, method, req.RequestID)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: CreateOrderResp{
			OrderSN:         res.SN,
			OrderStatus:     res.Status.String(),
			PaymentRequired: res.PaymentRequired,
		},
	}, nil
}

// RetrieveOrderDetail 查看订单详情
func (h *Handler) RetrieveOrderDetail(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.svc.FindOrder(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Data: toOrderVO(o)}, nil
}

// ListOrders 分页查询用户订单
func (h *Handler) ListOrders(ctx *ginx.Context, req ListOrdersReq, sess session.Session) (ginx.Result, error) {
	offset, limit := req.page()
	orders, total, err := h.svc.ListOrders(ctx.Request.Context(), sess.Claims().Uid, offset, limit)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: ListOrdersResp{
			Total: total,
			Orders: slice.Map(orders, func(idx int, src domain.Order) Order {
				return toOrderVO(src)
			}),
		},
	}, nil
}

func (h *Handler) CancelOrder(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.CancelOrder(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}

func (h *Handler) CancelOrderItem(ctx *ginx.Context, req OrderItemReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.CancelItem(ctx.Request.Context(), sess.Claims().Uid, req.ItemID)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}

func (h *Handler) RequestReturn(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.RequestReturn(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}

func (h *Handler) RequestItemReturn(ctx *ginx.Context, req OrderItemReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.RequestItemReturn(ctx.Request.Context(), sess.Claims().Uid, req.ItemID)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}
