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
	"fmt"

	"github.com/ecodeclub/ekit/slice"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"gorm.io/gorm"
)

// MutateFunc 在持有行锁的情况下修改订单、订单项与最新支付记录的状态
type MutateFunc func(o *domain.Order, pmt *domain.Payment) error

type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order, pmt domain.Payment) (domain.Order, domain.Payment, error)
	FindOrderByID(ctx context.Context, id int64) (domain.Order, error)
	FindOrderBySN(ctx context.Context, sn string) (domain.Order, error)
	FindItemByID(ctx context.Context, id int64) (domain.OrderItem, error)
	ListOrdersByBuyerID(ctx context.Context, buyerID int64, offset, limit int) ([]domain.Order, error)
	TotalOrdersByBuyerID(ctx context.Context, buyerID int64) (int64, error)
	ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, error)
	TotalOrders(ctx context.Context) (int64, error)
	MutateOrder(ctx context.Context, orderID int64, fn MutateFunc) (domain.Order, error)
}

func NewOrderRepository(d dao.OrderDAO) OrderRepository {
	return &orderRepository{d: d}
}

type orderRepository struct {
	d dao.OrderDAO
}

func (r *orderRepository) CreateOrder(ctx context.Context, order domain.Order, pmt domain.Payment) (domain.Order, domain.Payment, error) {
	o, items, p, err := r.d.Create(ctx, r.toOrderEntity(order), toPaymentEntity(pmt))
	if err != nil {
		return domain.Order{}, domain.Payment{}, err
	}
	return r.toOrderDomain(o, items), toPaymentDomain(p), nil
}

func (r *orderRepository) FindOrderByID(ctx context.Context, id int64) (domain.Order, error) {
	o, err := r.d.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, r.notFound(err, errs.OrderNotFound.With("orderId", id))
	}
	return r.withItems(ctx, o)
}

func (r *orderRepository) FindOrderBySN(ctx context.Context, sn string) (domain.Order, error) {
	o, err := r.d.FindBySN(ctx, sn)
	if err != nil {
		return domain.Order{}, r.notFound(err, errs.OrderNotFound.With("orderSN", sn))
	}
	return r.withItems(ctx, o)
}

func (r *orderRepository) withItems(ctx context.Context, o dao.Order) (domain.Order, error) {
	items, err := r.d.FindItemsByOrderIDs(ctx, []int64{o.Id})
	if err != nil {
		return domain.Order{}, fmt.Errorf("查询订单项失败: %w", err)
	}
	return r.toOrderDomain(o, items), nil
}

func (r *orderRepository) FindItemByID(ctx context.Context, id int64) (domain.OrderItem, error) {
	item, err := r.d.FindItemByID(ctx, id)
	if err != nil {
		return domain.OrderItem{}, r.notFound(err, errs.OrderItemNotFound.With("itemId", id))
	}
	return r.toItemDomain(item), nil
}

func (r *orderRepository) ListOrdersByBuyerID(ctx context.Context, buyerID int64, offset, limit int) ([]domain.Order, error) {
	orders, err := r.d.ListByBuyerID(ctx, buyerID, offset, limit)
	if err != nil {
		return nil, err
	}
	return r.fillItems(ctx, orders)
}

func (r *orderRepository) TotalOrdersByBuyerID(ctx context.Context, buyerID int64) (int64, error) {
	return r.d.CountByBuyerID(ctx, buyerID)
}

func (r *orderRepository) ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, error) {
	orders, err := r.d.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return r.fillItems(ctx, orders)
}

func (r *orderRepository) TotalOrders(ctx context.Context) (int64, error) {
	return r.d.Count(ctx)
}

func (r *orderRepository) fillItems(ctx context.Context, orders []dao.Order) ([]domain.Order, error) {
	oids := slice.Map(orders, func(idx int, src dao.Order) int64 {
		return src.Id
	})
	items, err := r.d.FindItemsByOrderIDs(ctx, oids)
	if err != nil {
		return nil, fmt.Errorf("查询订单项失败: %w", err)
	}
	grouped := make(map[int64][]dao.OrderItem, len(orders))
	for _, item := range items {
		grouped[item.OrderId] = append(grouped[item.OrderId], item)
	}
	return slice.Map(orders, func(idx int, src dao.Order) domain.Order {
		return r.toOrderDomain(src, grouped[src.Id])
	}), nil
}

func (r *orderRepository) MutateOrder(ctx context.Context, orderID int64, fn MutateFunc) (domain.Order, error) {
	o, items, err := r.d.Mutate(ctx, orderID, func(o *dao.Order, items []dao.OrderItem, pmt *dao.Payment) error {
		order := r.toOrderDomain(*o, items)
		p := toPaymentDomain(*pmt)
		if err := fn(&order, &p); err != nil {
			return err
		}
		// 只回写状态, 其余字段在订单创建后不可变
		o.Status = order.Status.ToUint8()
		for i := range items {
			items[i].Status = order.Items[i].Status.ToUint8()
		}
		pmt.Status = p.Status.ToUint8()
		return nil
	})
	if err != nil {
		return domain.Order{}, r.notFound(err, errs.OrderNotFound.With("orderId", orderID))
	}
	return r.toOrderDomain(o, items), nil
}

func (r *orderRepository) notFound(err error, nf *errs.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}

func (r *orderRepository) toOrderEntity(o domain.Order) dao.Order {
	return dao.Order{
		Id:                o.ID,
		SN:                o.SN,
		BuyerId:           o.BuyerID,
		Status:            o.Status.ToUint8(),
		AddressName:       o.Address.Name,
		AddressPhone:      o.Address.Phone,
		AddressLine:       o.Address.Line,
		AddressCity:       o.Address.City,
		AddressState:      o.Address.State,
		AddressPostalCode: o.Address.PostalCode,
		Subtotal:          o.Subtotal,
		ShippingFee:       o.ShippingFee,
		GrandTotal:        o.GrandTotal,
	}
}

func (r *orderRepository) toOrderDomain(o dao.Order, items []dao.OrderItem) domain.Order {
	return domain.Order{
		ID:      o.Id,
		SN:      o.SN,
		BuyerID: o.BuyerId,
		Status:  domain.OrderStatus(o.Status),
		Address: domain.Address{
			Name:       o.AddressName,
			Phone:      o.AddressPhone,
			Line:       o.AddressLine,
			City:       o.AddressCity,
			State:      o.AddressState,
			PostalCode: o.AddressPostalCode,
		},
		Subtotal:    o.Subtotal,
		ShippingFee: o.ShippingFee,
		GrandTotal:  o.GrandTotal,
		Items: slice.Map(items, func(idx int, src dao.OrderItem) domain.OrderItem {
			return r.toItemDomain(src)
		}),
		Ctime: o.Ctime,
		Utime: o.Utime,
	}
}

func (r *orderRepository) toItemDomain(item dao.OrderItem) domain.OrderItem {
	return domain.OrderItem{
		ID:      item.Id,
		OrderID: item.OrderId,
		Product: domain.Product{
			ID:           item.ProductId,
			Name:         item.ProductName,
			Slug:         item.ProductSlug,
			BrandName:    item.BrandName,
			BrandSlug:    item.BrandSlug,
			CategoryName: item.CategoryName,
			CategorySlug: item.CategorySlug,
		},
		UnitPrice:  item.UnitPrice,
		Quantity:   item.Quantity,
		TotalPrice: item.TotalPrice,
		Status:     domain.OrderStatus(item.Status),
		Ctime:      item.Ctime,
		Utime:      item.Utime,
	}
}
