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
	"github.com/ecodeclub/emall/internal/order/internal/service"
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/ginx/session"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc       service.OrderService
	lifecycle service.LifecycleService
}

func NewAdminHandler(svc service.OrderService, lifecycle service.LifecycleService) *AdminHandler {
	return &AdminHandler{svc: svc, lifecycle: lifecycle}
}

func (h *AdminHandler) PrivateRoutes(server *gin.Engine) {
	g := server.Group("/order")
	g.POST("/list", bs[ListOrdersReq](http.StatusOK, h.List))
	g.POST("/ship", bs[OrderSNReq](http.StatusOK, h.Ship))
	g.POST("/deliver", bs[OrderSNReq](http.StatusOK, h.Deliver))
	g.POST("/return/complete", bs[OrderSNReq](http.StatusOK, h.CompleteReturn))
}

func (h *AdminHandler) List(ctx *ginx.Context, req ListOrdersReq, _ session.Session) (ginx.Result, error) {
	offset, limit := req.page()
	orders, total, err := h.svc.ListAllOrders(ctx.Request.Context(), offset, limit)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: ListOrdersResp{
			Total: total,
			Orders: slice.Map(orders, func(idx int, src domain.Order) Order {
				vo := toOrderVO(src)
				vo.BuyerID = src.BuyerID
				return vo
			}),
		},
	}, nil
}

func (h *AdminHandler) Ship(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.Ship(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}

func (h *AdminHandler) Deliver(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.Deliver(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}

func (h *AdminHandler) CompleteReturn(ctx *ginx.Context, req OrderSNReq, sess session.Session) (ginx.Result, error) {
	o, err := h.lifecycle.CompleteReturn(ctx.Request.Context(), sess.Claims().Uid, req.SN)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Msg: okResult.Msg, Data: toOrderVO(o)}, nil
}
