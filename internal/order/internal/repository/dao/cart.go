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

package dao

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// CartDAO 读取购物车、商品与默认收货地址, 不加锁
type CartDAO interface {
	FindCart(ctx context.Context, buyerID int64) ([]CartItem, map[int64]Product, error)
	FindDefaultAddress(ctx context.Context, buyerID int64) (Address, error)
}

type CartGORMDAO struct {
	db *egorm.Component
}

func NewCartGORMDAO(db *egorm.Component) CartDAO {
	return &CartGORMDAO{db: db}
}

func (g *CartGORMDAO) FindCart(ctx context.Context, buyerID int64) ([]CartItem, map[int64]Product, error) {
	var carts []CartItem
	err := g.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("id").Find(&carts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("查询购物车失败: %w", err)
	}
	if len(carts) == 0 {
		return carts, map[int64]Product{}, nil
	}
	products, err := findProducts(g.db.WithContext(ctx), productIDs(carts))
	return carts, products, err
}

func (g *CartGORMDAO) FindDefaultAddress(ctx context.Context, buyerID int64) (Address, error) {
	var res Address
	err := g.db.WithContext(ctx).
		Where("buyer_id = ? AND is_default = ?", buyerID, true).
		Order("id DESC").
		First(&res).Error
	return res, err
}

// productIDs 去重并升序排列, 保证加锁顺序一致
func productIDs(carts []CartItem) []int64 {
	ids := slice.Map(carts, func(idx int, src CartItem) int64 {
		return src.ProductId
	})
	slices.Sort(ids)
	return slices.Compact(ids)
}

func findProducts(db *gorm.DB, ids []int64) (map[int64]Product, error) {
	var products []Product
	err := db.Where("id IN ?", ids).Order("id").Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	res := make(map[int64]Product, len(products))
	for _, p := range products {
		res[p.Id] = p
	}
	return res, nil
}

// adjustStock 使用一条 UPDATE ... CASE 批量调整库存, delta 为负数表示扣减
func adjustStock(tx *gorm.DB, deltas map[int64]int64, now int64) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var sb strings.Builder
	args := make([]any, 0, 2*len(ids))
	sb.WriteString("CASE id")
	for _, id := range ids {
		sb.WriteString(" WHEN ? THEN stock + ?")
		args = append(args, id, deltas[id])
	}
	sb.WriteString(" ELSE stock END")

	err := tx.Model(&Product{}).Where("id IN ?", ids).Updates(map[string]any{
		"stock": gorm.Expr(sb.String(), args...),
		"utime": now,
	}).Error
	if err != nil {
		return fmt.Errorf("调整库存失败: %w", err)
	}
	return nil
}
