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

package domain

import "github.com/shopspring/decimal"

var (
	FreeShippingThreshold = decimal.NewFromInt(500)
	FlatShippingFee       = decimal.NewFromInt(99)
)

// ShippingFee 满 500 包邮, 否则收取固定运费
func ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// CartLine 购物车中的一行, 带上商品当前的状态
type CartLine struct {
	ID         int64
	BuyerID    int64
	Product    Product
	Active     bool
	Stock      int64
	UnitPrice  decimal.Decimal
	Quantity   int64
	TotalPrice decimal.Decimal
}

// StockIssue 商品不可下单的原因
type StockIssue struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Reason      string `json:"reason"`
	Requested   int64  `json:"requested,omitempty"`
	Available   int64  `json:"available,omitempty"`
}

const (
	IssueInactive          = "INACTIVE"
	IssueInsufficientStock = "INSUFFICIENT_STOCK"
)

// Check 校验商品是否上架以及库存是否足够
func (l CartLine) Check() (StockIssue, bool) {
	if !l.Active {
		return StockIssue{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Reason:      IssueInactive,
		}, false
	}
	if l.Quantity > l.Stock {
		return StockIssue{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Reason:      IssueInsufficientStock,
			Requested:   l.Quantity,
			Available:   l.Stock,
		}, false
	}
	return StockIssue{}, true
}

type Checkout struct {
	Lines       []CartLine
	Address     Address
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

// NewCheckout 根据购物车计算小计、运费与总价
func NewCheckout(lines []CartLine, addr Address) Checkout {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.TotalPrice)
	}
	fee := ShippingFee(subtotal)
	return Checkout{
		Lines:       lines,
		Address:     addr,
		Subtotal:    subtotal,
		ShippingFee: fee,
		GrandTotal:  subtotal.Add(fee),
	}
}
