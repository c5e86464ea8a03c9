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
	"errors"
	"io"
	"net/http"

	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/ginx"
	"github.com/ecodeclub/ginx/session"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

var (
	systemErrorResult = ginx.Result{
		Code: errs.SystemError.Code,
		Msg:  errs.SystemError.Msg,
	}
	okResult = ginx.Result{Msg: "OK"}
)

var kindToHTTPStatus = map[errs.Kind]int{
	errs.KindValidation: http.StatusBadRequest,
	errs.KindNotFound:   http.StatusNotFound,
	errs.KindConflict:   http.StatusConflict,
	errs.KindGateway:    http.StatusBadGateway,
}

type sessionHandlerFunc[Req any] func(ctx *ginx.Context, req Req, sess session.Session) (ginx.Result, error)

// bs 和 ginx.BS 一样绑定请求体并取出 session, 区别在于按错误类型写回对应的 HTTP 状态码
func bs[Req any](okStatus int, fn sessionHandlerFunc[Req]) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		gctx := &ginx.Context{Context: ctx}
		sess, err := session.Get(gctx)
		if err != nil {
			elog.Debug("获取 Session 失败", elog.FieldErr(err))
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		var req Req
		// 允许空请求体
		if err = ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			ctx.JSON(http.StatusBadRequest, ginx.Result{
				Code: errs.InvalidParam.Code,
				Msg:  errs.InvalidParam.Msg,
			})
			return
		}
		res, err := fn(gctx, req, sess)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(okStatus, res)
	}
}

// writeError 业务错误原样返回 Code 与 Data, 其余错误统一为系统错误
func writeError(ctx *gin.Context, err error) {
	var e *errs.Error
	if errors.As(err, &e) {
		if status, ok := kindToHTTPStatus[e.Kind]; ok {
			ctx.JSON(status, ginx.Result{Code: e.Code, Msg: e.Msg, Data: e.Data})
			return
		}
	}
	elog.Error("处理请求失败",
		elog.FieldErr(err),
		elog.String("method", ctx.Request.Method),
		elog.String("path", ctx.FullPath()))
	ctx.JSON(http.StatusInternalServerError, systemErrorResult)
}
