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

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/emall/internal/order/internal/domain"
	"github.com/ecodeclub/emall/internal/order/internal/errs"
	"github.com/ecodeclub/emall/internal/order/internal/event"
	"github.com/ecodeclub/emall/internal/order/internal/repository"
	"github.com/ecodeclub/emall/internal/pkg/sequencenumber"
	"github.com/ecodeclub/emall/internal/pkg/snowflake"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/errgroup"
)

type OrderService interface {
	// PreviewCheckout 不加锁的试算, 下单时会在行锁下重新校验
	PreviewCheckout(ctx context.Context, buyerID int64) (domain.Checkout, error)
	CreateOrder(ctx context.Context, buyerID int64, method domain.PaymentMethod, requestID string) (domain.CreatedOrder, error)
	FindOrder(ctx context.Context, buyerID int64, sn string) (domain.Order, error)
	ListOrders(ctx context.Context, buyerID int64, offset, limit int) ([]domain.Order, int64, error)
	// ListAllOrders 管理后台使用
	ListAllOrders(ctx context.Context, offset, limit int) ([]domain.Order, int64, error)
}

type orderService struct {
	repo     repository.OrderRepository
	cartRepo repository.CartRepository
	cache    ecache.Cache
	sn       *sequencenumber.Generator
	ids      *snowflake.Generator
	audit    auditor
	cfg      Config
}

func NewOrderService(repo repository.OrderRepository,
	cartRepo repository.CartRepository,
	cache ecache.Cache,
	sn *sequencenumber.Generator,
	ids *snowflake.Generator,
	producer event.AuditEventProducer,
	cfg Config) OrderService {
	return &orderService{
		repo:     repo,
		cartRepo: cartRepo,
		cache:    cache,
		sn:       sn,
		ids:      ids,
		audit:    auditor{producer: producer, l: elog.DefaultLogger},
		cfg:      cfg,
	}
}

func (s *orderService) PreviewCheckout(ctx context.Context, buyerID int64) (domain.Checkout, error) {
	lines, err := s.cartRepo.FindCartLines(ctx, buyerID)
	if err != nil {
		return domain.Checkout{}, err
	}
	if len(lines) == 0 {
		return domain.Checkout{}, errs.EmptyCart
	}
	addr, err := s.cartRepo.FindDefaultAddress(ctx, buyerID)
	if err != nil {
		return domain.Checkout{}, err
	}
	if issues := checkLines(lines); len(issues) > 0 {
		return domain.Checkout{}, errs.ProductUnavailable.With("issues", issues)
	}
	return domain.NewCheckout(lines, addr), nil
}

// checkLines 同一商品出现在多行时按总数量校验
func checkLines(lines []domain.CartLine) []domain.StockIssue {
	merged := make(map[int64]domain.CartLine, len(lines))
	order := make([]int64, 0, len(lines))
	for _, l := range lines {
		m, ok := merged[l.Product.ID]
		if !ok {
			order = append(order, l.Product.ID)
			merged[l.Product.ID] = l
			continue
		}
		m.Quantity += l.Quantity
		merged[l.Product.ID] = m
	}
	var issues []domain.StockIssue
	for _, id := range order {
		if issue, ok := merged[id].Check(); !ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func (s *orderService) CreateOrder(ctx context.Context, buyerID int64, method domain.PaymentMethod, requestID string) (domain.CreatedOrder, error) {
	if method != domain.PaymentMethodCOD && method != domain.PaymentMethodGateway {
		return domain.CreatedOrder{}, errs.InvalidPayMethod.With("paymentMethod", method.String())
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.checkRequestID(ctx, buyerID, requestID); err != nil {
		return domain.CreatedOrder{}, err
	}
	addr, err := s.cartRepo.FindDefaultAddress(ctx, buyerID)
	if err != nil {
		return domain.CreatedOrder{}, s.releaseRequestID(ctx, buyerID, requestID, err)
	}
	pmtSN, err := s.ids.NextSN(snowflake.BizPayment, "PAY")
	if err != nil {
		return domain.CreatedOrder{}, s.releaseRequestID(ctx, buyerID, requestID, fmt.Errorf("生成支付流水号失败: %w", err))
	}
	o, pmt, err := s.repo.CreateOrder(ctx, domain.Order{
		SN:      s.sn.Generate(buyerID),
		BuyerID: buyerID,
		Address: addr,
	}, domain.Payment{
		SN:       pmtSN,
		Method:   method,
		Currency: s.cfg.Currency,
	})
	if err != nil {
		return domain.CreatedOrder{}, s.releaseRequestID(ctx, buyerID, requestID, err)
	}
	s.audit.publish(ctx, event.NewOrderCreatedEvents(buyerID, o, pmt)...)
	return domain.CreatedOrder{
		ID:              o.ID,
		SN:              o.SN,
		Status:          o.Status,
		PaymentRequired: pmt.Method == domain.PaymentMethodGateway,
	}, nil
}

func (s *orderService) requestKey(buyerID int64, requestID string) string {
	return fmt.Sprintf("order:create:%d:%s", buyerID, requestID)
}

// checkRequestID 请求 ID 为空时不去重
func (s *orderService) checkRequestID(ctx context.Context, buyerID int64, requestID string) error {
	if requestID == "" {
		return nil
	}
	ok, err := s.cache.SetNX(ctx, s.requestKey(buyerID, requestID), time.Now().UnixMilli(), s.cfg.RequestIDTTL)
	if err != nil {
		return fmt.Errorf("缓存请求ID失败: %w", err)
	}
	if !ok {
		return errs.DuplicateRequest.With("requestID", requestID)
	}
	return nil
}

// releaseRequestID 下单失败时允许使用同一个请求 ID 重试
func (s *orderService) releaseRequestID(ctx context.Context, buyerID int64, requestID string, cause error) error {
	if requestID == "" {
		return cause
	}
	if _, err := s.cache.Delete(ctx, s.requestKey(buyerID, requestID)); err != nil {
		s.audit.l.Warn("释放请求ID失败",
			elog.FieldErr(err),
			elog.Int64("buyerId", buyerID),
			elog.String("requestID", requestID))
	}
	return cause
}

func (s *orderService) FindOrder(ctx context.Context, buyerID int64, sn string) (domain.Order, error) {
	return findOwnedOrder(ctx, s.repo, buyerID, sn)
}

func (s *orderService) ListOrders(ctx context.Context, buyerID int64, offset, limit int) ([]domain.Order, int64, error) {
	var (
		eg    errgroup.Group
		os    []domain.Order
		total int64
	)
	eg.Go(func() error {
		var err error
		os, err = s.repo.ListOrdersByBuyerID(ctx, buyerID, offset, limit)
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = s.repo.TotalOrdersByBuyerID(ctx, buyerID)
		return err
	})
	return os, total, eg.Wait()
}

func (s *orderService) ListAllOrders(ctx context.Context, offset, limit int) ([]domain.Order, int64, error) {
	var (
		eg    errgroup.Group
		os    []domain.Order
		total int64
	)
	eg.Go(func() error {
		var err error
		os, err = s.repo.ListOrders(ctx, offset, limit)
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = s.repo.TotalOrders(ctx)
		return err
	})
	return os, total, eg.Wait()
}
