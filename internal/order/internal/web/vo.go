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
	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line       string `json:"line"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	BrandName    string `json:"brandName"`
	BrandSlug    string `json:"brandSlug"`
	CategoryName string `json:"categoryName"`
	CategorySlug string `json:"categorySlug"`
}

type CartLine struct {
	Product    Product `json:"product"`
	UnitPrice  string  `json:"unitPrice"`
	Quantity   int64   `json:"quantity"`
	TotalPrice string  `json:"totalPrice"`
}

type CheckoutPreviewReq struct{}

type CheckoutPreviewResp struct {
	Lines       []CartLine `json:"lines"`
	Address     Address    `json:"address"`
	Subtotal    string     `json:"subtotal"`
	ShippingFee string     `json:"shippingFee"`
	GrandTotal  string     `json:"grandTotal"`
}

// CreateOrderReq 创建订单请求
type CreateOrderReq struct {
	PaymentMethod string `json:"paymentMethod"` // COD 或 GATEWAY
	RequestID     string `json:"requestID"`     // 请求去重,防止订单重复提交
}

type CreateOrderResp struct {
	OrderSN         string `json:"orderSN"`
	OrderStatus     string `json:"orderStatus"`
	PaymentRequired bool   `json:"paymentRequired"`
}

type OrderSNReq struct {
	SN string `json:"sn"`
}

type OrderItemReq struct {
	ItemID int64 `json:"itemId"`
}

// ListOrdersReq 分页查询订单
type ListOrdersReq struct {
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

func (r ListOrdersReq) page() (int, int) {
	offset, limit := max(r.Offset, 0), r.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return offset, min(limit, maxLimit)
}

type ListOrdersResp struct {
	Total  int64   `json:"total"`
	Orders []Order `json:"orders"`
}

type Order struct {
	SN          string      `json:"sn"`
	BuyerID     int64       `json:"buyerId,omitempty"`
	Status      string      `json:"status"`
	Address     Address     `json:"address"`
	Subtotal    string      `json:"subtotal"`
	ShippingFee string      `json:"shippingFee"`
	GrandTotal  string      `json:"grandTotal"`
	Items       []OrderItem `json:"items"`
	Ctime       int64       `json:"ctime"`
	Utime       int64       `json:"utime"`
}

type OrderItem struct {
	ID         int64   `json:"id"`
	Product    Product `json:"product"`
	UnitPrice  string  `json:"unitPrice"`
	Quantity   int64   `json:"quantity"`
	TotalPrice string  `json:"totalPrice"`
	Status     string  `json:"status"`
}

type PaymentReq struct {
	OrderSN string `json:"orderSN"`
}

// GatewayOrderResp 前端用于唤起网关收银台
type GatewayOrderResp struct {
	OrderSN         string `json:"orderSN"`
	GatewayOrderRef string `json:"gatewayOrderRef"`
	PublicKey       string `json:"publicKey"`
	Amount          int64  `json:"amount"` // 最小货币单位
	Currency        string `json:"currency"`
}

type PaymentStatusResp struct {
	OrderSN       string `json:"orderSN"`
	OrderStatus   string `json:"orderStatus"`
	PaymentStatus string `json:"paymentStatus"`
	RetryAllowed  bool   `json:"retryAllowed"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toAddressVO(a domain.Address) Address {
	return Address{
		Name:       a.Name,
		Phone:      a.Phone,
		Line:       a.Line,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

func toProductVO(p domain.Product) Product {
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		BrandName:    p.BrandName,
		BrandSlug:    p.BrandSlug,
		CategoryName: p.CategoryName,
		CategorySlug: p.CategorySlug,
	}
}

func toCheckoutVO(c domain.Checkout) CheckoutPreviewResp {
	return CheckoutPreviewResp{
		Lines: slice.Map(c.Lines, func(idx int, src domain.CartLine) CartLine {
			return CartLine{
				Product:    toProductVO(src.Product),
				UnitPrice:  money(src.UnitPrice),
				Quantity:   src.Quantity,
				TotalPrice: money(src.TotalPrice),
			}
		}),
		Address:     toAddressVO(c.Address),
		Subtotal:    money(c.Subtotal),
		ShippingFee: money(c.ShippingFee),
		GrandTotal:  money(c.GrandTotal),
	}
}

func toOrderVO(o domain.Order) Order {
	return Order{
		SN:          o.SN,
		Status:      o.Status.String(),
		Address:     toAddressVO(o.Address),
		Subtotal:    money(o.Subtotal),
		ShippingFee: money(o.ShippingFee),
		GrandTotal:  money(o.GrandTotal),
		Items: slice.Map(o.Items, func(idx int, src domain.OrderItem) OrderItem {
			return OrderItem{
				ID:         src.ID,
				Product:    toProductVO(src.Product),
				UnitPrice:  money(src.UnitPrice),
				Quantity:   src.Quantity,
				TotalPrice: money(src.TotalPrice),
				Status:     src.Status.String(),
			}
		}),
		Ctime: o.Ctime,
		Utime: o.Utime,
	}
}

func toGatewayOrderVO(g domain.GatewayOrder) GatewayOrderResp {
	return GatewayOrderResp{
		OrderSN:         g.OrderSN,
		GatewayOrderRef: g.GatewayOrderRef,
		PublicKey:       g.PublicKey,
		Amount:          g.MinorAmount,
		Currency:        g.Currency,
	}
}
