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
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ego-component/egorm"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// MutateFunc 在持有订单、订单项行锁的情况下修改状态, pmt 为订单最新的一条支付记录
type MutateFunc func(o *Order, items []OrderItem, pmt *Payment) error

type OrderDAO interface {
	// Create 在一个事务内锁定并扣减库存, 创建订单、订单项和首条支付记录, 最后清空购物车
	Create(ctx context.Context, o Order, pmt Payment) (Order, []OrderItem, Payment, error)
	FindByID(ctx context.Context, id int64) (Order, error)
	FindBySN(ctx context.Context, sn string) (Order, error)
	FindItemByID(ctx context.Context, id int64) (OrderItem, error)
	FindItemsByOrderIDs(ctx context.Context, oids []int64) ([]OrderItem, error)
	ListByBuyerID(ctx context.Context, buyerID int64, offset, limit int) ([]Order, error)
	CountByBuyerID(ctx context.Context, buyerID int64) (int64, error)
	List(ctx context.Context, offset, limit int) ([]Order, error)
	Count(ctx context.Context) (int64, error)
	// Mutate 状态变更统一入口, 被取消或退货完成的订单项会回补库存
	Mutate(ctx context.Context, orderID int64, fn MutateFunc) (Order, []OrderItem, error)
}

type OrderGORMDAO struct {
	db *egorm.Component
}

func NewOrderGORMDAO(db *egorm.Component) OrderDAO {
	return &OrderGORMDAO{db: db}
}

func (g *OrderGORMDAO) Create(ctx context.Context, o Order, pmt Payment) (Order, []OrderItem, Payment, error) {
	var items []OrderItem
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var carts []CartItem
		if err := tx.Where("buyer_id = ?", o.BuyerId).Order("id").Find(&carts).Error; err != nil {
			return fmt.Errorf("查询购物车失败: %w", err)
		}
		if len(carts) == 0 {
			return errs.EmptyCart
		}

		products, err := findProducts(tx.Clauses(forUpdate), productIDs(carts))
		if err != nil {
			return err
		}
		if err = checkStock(carts, products); err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		deltas := make(map[int64]int64, len(products))
		for _, c := range carts {
			deltas[c.ProductId] -= c.Quantity
		}
		if err = adjustStock(tx, deltas, now); err != nil {
			return err
		}

		subtotal := decimal.Zero
		items = make([]OrderItem, 0, len(carts))
		for _, c := range carts {
			p := products[c.ProductId]
			total := c.UnitPrice.Mul(decimal.NewFromInt(c.Quantity))
			subtotal = subtotal.Add(total)
			items = append(items, OrderItem{
				ProductId:    p.Id,
				ProductName:  p.Name,
				ProductSlug:  p.Slug,
				BrandName:    p.BrandName,
				BrandSlug:    p.BrandSlug,
				CategoryName: p.CategoryName,
				CategorySlug: p.CategorySlug,
				UnitPrice:    c.UnitPrice,
				Quantity:     c.Quantity,
				TotalPrice:   total,
				Status:       domain.StatusPending.ToUint8(),
				Ctime:        now,
				Utime:        now,
			})
		}

		o.Status = domain.StatusPending.ToUint8()
		o.Subtotal = subtotal
		o.ShippingFee = domain.ShippingFee(subtotal)
		o.GrandTotal = subtotal.Add(o.ShippingFee)
		o.Ctime, o.Utime = now, now
		if err = tx.Create(&o).Error; err != nil {
			return fmt.Errorf("创建订单失败: %w", err)
		}

		for i := range items {
			items[i].OrderId = o.Id
		}
		if err = tx.Create(&items).Error; err != nil {
			return fmt.Errorf("创建订单项失败: %w", err)
		}

		pmt.OrderId = o.Id
		pmt.Amount = o.GrandTotal
		pmt.Status = domain.PaymentStatusPending.ToUint8()
		pmt.Ctime, pmt.Utime = now, now
		if err = tx.Create(&pmt).Error; err != nil {
			return fmt.Errorf("创建支付记录失败: %w", err)
		}

		cartIDs := slice.Map(carts, func(idx int, src CartItem) int64 {
			return src.Id
		})
		if err = tx.Where("id IN ?", cartIDs).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("清空购物车失败: %w", err)
		}
		return nil
	})
	return o, items, pmt, err
}

// checkStock 同一个商品在购物车中出现多次时按总数量校验
func checkStock(carts []CartItem, products map[int64]Product) error {
	requested := make(map[int64]int64, len(products))
	for _, c := range carts {
		requested[c.ProductId] += c.Quantity
	}
	var issues []domain.StockIssue
	for _, id := range productIDs(carts) {
		p, ok := products[id]
		line := domain.CartLine{
			Product:  domain.Product{ID: id, Name: p.Name},
			Active:   ok && p.IsActive,
			Stock:    p.Stock,
			Quantity: requested[id],
		}
		if issue, passed := line.Check(); !passed {
			issues = append(issues, issue)
		}
	}
	if len(issues) > 0 {
		return errs.ProductUnavailable.With("issues", issues)
	}
	return nil
}

func (g *OrderGORMDAO) FindByID(ctx context.Context, id int64) (Order, error) {
	var res Order
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	return res, err
}

func (g *OrderGORMDAO) FindBySN(ctx context.Context, sn string) (Order, error) {
	var res Order
	err := g.db.WithContext(ctx).Where("sn = ?", sn).First(&res).Error
	return res, err
}

func (g *OrderGORMDAO) FindItemByID(ctx context.Context, id int64) (OrderItem, error) {
	var res OrderItem
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	return res, err
}

func (g *OrderGORMDAO) FindItemsByOrderIDs(ctx context.Context, oids []int64) ([]OrderItem, error) {
	var res []OrderItem
	if len(oids) == 0 {
		return res, nil
	}
	err := g.db.WithContext(ctx).Where("order_id IN ?", oids).Order("id").Find(&res).Error
	return res, err
}

func (g *OrderGORMDAO) ListByBuyerID(ctx context.Context, buyerID int64, offset, limit int) ([]Order, error) {
	var res []Order
	err := g.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("ctime DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (g *OrderGORMDAO) CountByBuyerID(ctx context.Context, buyerID int64) (int64, error) {
	var res int64
	err := g.db.WithContext(ctx).Model(&Order{}).Where("buyer_id = ?", buyerID).Count(&res).Error
	return res, err
}

func (g *OrderGORMDAO) List(ctx context.Context, offset, limit int) ([]Order, error) {
	var res []Order
	err := g.db.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (g *OrderGORMDAO) Count(ctx context.Context) (int64, error) {
	var res int64
	err := g.db.WithContext(ctx).Model(&Order{}).Count(&res).Error
	return res, err
}

func (g *OrderGORMDAO) Mutate(ctx context.Context, orderID int64, fn MutateFunc) (Order, []OrderItem, error) {
	var (
		o     Order
		items []OrderItem
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).Where("id = ?", orderID).First(&o).Error; err != nil {
			return err
		}
		if err := tx.Clauses(forUpdate).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
			return fmt.Errorf("锁定订单项失败: %w", err)
		}
		// 支付记录不加锁, 避免与回调 (先锁支付再锁订单) 形成死锁
		var pmt Payment
		if err := tx.Where("order_id = ?", orderID).Order("id DESC").First(&pmt).Error; err != nil {
			return fmt.Errorf("查询支付记录失败: %w", err)
		}

		oldOrderStatus := o.Status
		oldItemStatuses := slice.Map(items, func(idx int, src OrderItem) uint8 {
			return src.Status
		})
		oldPaymentStatus := pmt.Status
		if err := fn(&o, items, &pmt); err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		if o.Status != oldOrderStatus {
			o.Utime = now
			err := tx.Model(&Order{}).Where("id = ?", o.Id).Updates(map[string]any{
				"status": o.Status,
				"utime":  now,
			}).Error
			if err != nil {
				return fmt.Errorf("更新订单状态失败: %w", err)
			}
		}

		changed := make(map[uint8][]int64, 2)
		restock := make(map[int64]int64)
		for i := range items {
			if items[i].Status == oldItemStatuses[i] {
				continue
			}
			items[i].Utime = now
			changed[items[i].Status] = append(changed[items[i].Status], items[i].Id)
			s := domain.OrderStatus(items[i].Status)
			if s == domain.StatusCancelled || s == domain.StatusReturned {
				restock[items[i].ProductId] += items[i].Quantity
			}
		}
		for status, ids := range changed {
			err := tx.Model(&OrderItem{}).Where("id IN ?", ids).Updates(map[string]any{
				"status": status,
				"utime":  now,
			}).Error
			if err != nil {
				return fmt.Errorf("更新订单项状态失败: %w", err)
			}
		}
		if err := adjustStock(tx, restock, now); err != nil {
			return err
		}

		if pmt.Status != oldPaymentStatus {
			res := tx.Model(&Payment{}).
				Where("id = ? AND status = ?", pmt.Id, oldPaymentStatus).
				Updates(map[string]any{
					"status": pmt.Status,
					"utime":  now,
				})
			if res.Error != nil {
				return fmt.Errorf("更新支付状态失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return errs.PaymentSettled.With("paymentId", pmt.Id)
			}
		}
		return nil
	})
	return o, items, err
}
