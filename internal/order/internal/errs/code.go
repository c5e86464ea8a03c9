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

package errs

import "maps"

type Kind uint8

const (
	KindSystem Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindGateway
)

var (
	SystemError = &Error{Kind: KindSystem, Code: 503001, Msg: "系统错误"}

	EmptyCart          = &Error{Kind: KindValidation, Code: 403001, Msg: "购物车为空"}
	NoDefaultAddress   = &Error{Kind: KindValidation, Code: 403002, Msg: "未设置默认收货地址"}
	ProductUnavailable = &Error{Kind: KindValidation, Code: 403003, Msg: "商品已下架或库存不足"}
	InvalidPayMethod   = &Error{Kind: KindValidation, Code: 403004, Msg: "支付方式非法"}
	OrderAlreadyPaid   = &Error{Kind: KindValidation, Code: 403005, Msg: "订单已支付"}
	NoPendingPayment   = &Error{Kind: KindValidation, Code: 403006, Msg: "没有待支付的在线支付记录"}
	PaymentSucceeded   = &Error{Kind: KindValidation, Code: 403007, Msg: "支付已成功, 无需重试"}
	PaymentRefunded    = &Error{Kind: KindValidation, Code: 403008, Msg: "支付已退款, 无法重试"}
	CODNotRetryable    = &Error{Kind: KindValidation, Code: 403009, Msg: "货到付款订单不支持在线支付"}
	InvalidParam       = &Error{Kind: KindValidation, Code: 403010, Msg: "参数错误"}

	OrderNotFound     = &Error{Kind: KindNotFound, Code: 404001, Msg: "订单不存在"}
	OrderItemNotFound = &Error{Kind: KindNotFound, Code: 404002, Msg: "订单项不存在"}
	PaymentNotFound   = &Error{Kind: KindNotFound, Code: 404003, Msg: "支付记录不存在"}

	OrderBlocked      = &Error{Kind: KindConflict, Code: 409001, Msg: "订单中存在不可支付的订单项"}
	PaymentInProgress = &Error{Kind: KindConflict, Code: 409002, Msg: "支付正在处理中"}
	RetryTooEarly     = &Error{Kind: KindConflict, Code: 409003, Msg: "上一次支付仍在进行中, 请稍后重试"}
	DuplicateRequest  = &Error{Kind: KindConflict, Code: 409004, Msg: "重复请求"}
	InvalidTransition = &Error{Kind: KindConflict, Code: 409005, Msg: "当前状态不允许该操作"}
	PaymentSettled    = &Error{Kind: KindConflict, Code: 409006, Msg: "支付已完成结算"}

	GatewayUnavailable = &Error{Kind: KindGateway, Code: 502001, Msg: "支付网关不可用"}
)

// Error 业务错误, Code 用于前端识别, Data 携带出错的实体与原因
type Error struct {
	Kind Kind
	Code int
	Msg  string
	Data map[string]any
}

func (e *Error) Error() string {
	return e.Msg
}

// Is 按 Code 比较, 附带了 Data 的副本依旧可以和原始错误匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With 返回附带了额外信息的副本
func (e *Error) With(key string, val any) *Error {
	data := make(map[string]any, len(e.Data)+1)
	maps.Copy(data, e.Data)
	data[key] = val
	return &Error{Kind: e.Kind, Code: e.Code, Msg: e.Msg, Data: data}
}
