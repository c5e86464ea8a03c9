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

//go:build wireinject

package order

import (
	"sync"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/emall/internal/order/internal/event"
	"github.com/ecodeclub/emall/internal/order/internal/job"
	"github.com/ecodeclub/emall/internal/order/internal/repository"
	"github.com/ecodeclub/emall/internal/order/internal/repository/dao"
	"github.com/ecodeclub/emall/internal/order/internal/service"
	"github.com/ecodeclub/emall/internal/order/internal/web"
	"github.com/ecodeclub/emall/internal/payment"
	"github.com/ecodeclub/emall/internal/pkg/sequencenumber"
	"github.com/ecodeclub/emall/internal/pkg/snowflake"
	"github.com/ecodeclub/mq-api"
	"github.com/ego-component/egorm"
	"github.com/google/wire"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

var ServiceSet = wire.NewSet(
	InitOrderDAO,
	InitPaymentDAO,
	InitCartDAO,
	repository.NewOrderRepository,
	repository.NewPaymentRepository,
	repository.NewCartRepository,
	InitConfig,
	InitSNGenerator,
	InitIDGenerator,
	event.NewAuditEventProducer,
	wire.FieldsOf(new(*payment.Module), "Gateway", "Notifier"),
	service.NewOrderService,
	service.NewPaymentService,
	service.NewReconcileService,
	service.NewLifecycleService,
)

func InitModule(db *egorm.Component, cache ecache.Cache, q mq.MQ, pm *payment.Module) (*Module, error) {
	wire.Build(
		ServiceSet,
		web.NewHandler,
		web.NewPaymentHandler,
		web.NewAdminHandler,
		InitSyncGatewayPaymentsJob,
		wire.Struct(new(Module), "*"),
	)
	return new(Module), nil
}

var once = &sync.Once{}

func initTablesOnce(db *egorm.Component) {
	once.Do(func() {
		if err := dao.InitTables(db); err != nil {
			elog.Error("初始化订单表失败", elog.FieldErr(err))
		}
	})
}

func InitOrderDAO(db *egorm.Component) dao.OrderDAO {
	initTablesOnce(db)
	return dao.NewOrderGORMDAO(db)
}

func InitPaymentDAO(db *egorm.Component) dao.PaymentDAO {
	initTablesOnce(db)
	return dao.NewPaymentGORMDAO(db)
}

func InitCartDAO(db *egorm.Component) dao.CartDAO {
	initTablesOnce(db)
	return dao.NewCartGORMDAO(db)
}

// InitConfig 币种与网关超时沿用支付网关的配置
func InitConfig(pm *payment.Module) service.Config {
	cfg := service.DefaultConfig()
	if econf.Get("order") != nil {
		if err := econf.UnmarshalKey("order", &cfg); err != nil {
			panic(err)
		}
	}
	cfg.Currency = pm.Cfg.Currency
	cfg.GatewayTimeout = pm.Cfg.Timeout
	return cfg
}

func InitSNGenerator() *sequencenumber.Generator {
	return sequencenumber.NewGenerator("EM")
}

func InitIDGenerator() *snowflake.Generator {
	ids, err := snowflake.NewGenerator(uint(econf.GetInt("order.nodeID")), 2)
	if err != nil {
		panic(err)
	}
	return ids
}

func InitSyncGatewayPaymentsJob(svc service.ReconcileService) *job.SyncGatewayPaymentsJob {
	type Config struct {
		Minutes int64
		Limit   int
	}
	cfg := Config{Minutes: 30, Limit: 100}
	if econf.Get("job.syncGatewayPayments") != nil {
		if err := econf.UnmarshalKey("job.syncGatewayPayments", &cfg); err != nil {
			panic(err)
		}
	}
	return job.NewSyncGatewayPaymentsJob(svc, cfg.Minutes, cfg.Limit)
}
