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

package repository

import (
	"context"
	"errors"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindCartLines(ctx context.Context, buyerID int64) ([]domain.CartLine, error)
	FindDefaultAddress(ctx context.Context, buyerID int64) (domain.Address, error)
}

func NewCartRepository(d dao.CartDAO) CartRepository {
	return &cartRepository{d: d}
}

type cartRepository struct {
	d dao.CartDAO
}

func (r *cartRepository) FindCartLines(ctx context.Context, buyerID int64) ([]domain.CartLine, error) {
	carts, products, err := r.d.FindCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return slice.Map(carts, func(idx int, src dao.CartItem) domain.CartLine {
		p, ok := products[src.ProductId]
		return domain.CartLine{
			ID:      src.Id,
			BuyerID: src.BuyerId,
			Product: domain.Product{
				ID:           src.ProductId,
				Name:         p.Name,
				Slug:         p.Slug,
				BrandName:    p.BrandName,
				BrandSlug:    p.BrandSlug,
				CategoryName: p.CategoryName,
				CategorySlug: p.CategorySlug,
			},
			// 商品已被删除时按下架处理
			Active:     ok && p.IsActive,
			Stock:      p.Stock,
			UnitPrice:  src.UnitPrice,
			Quantity:   src.Quantity,
			TotalPrice: src.UnitPrice.Mul(decimal.NewFromInt(src.Quantity)),
		}
	}), nil
}

func (r *cartRepository) FindDefaultAddress(ctx context.Context, buyerID int64) (domain.Address, error) {
	addr, err := r.d.FindDefaultAddress(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Address{}, errs.NoDefaultAddress
	}
	if err != nil {
		return domain.Address{}, err
	}
	return domain.Address{
		Name:       addr.Name,
		Phone:      addr.Phone,
		Line:       addr.Line,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
	}, nil
}
