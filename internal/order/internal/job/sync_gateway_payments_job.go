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

package job

import (
	"context"
	"fmt"
	"time"

	"github.com/ecodeclub/emall/internal/order/internal/service"
	"github.com/gotomicro/ego/core/elog"
)

const defaultLimit = 100

// SyncGatewayPaymentsJob 对创建超过 minutes 分钟仍在等待支付的网关订单主动查询结果, 补偿丢失的回调
type SyncGatewayPaymentsJob struct {
	svc     service.ReconcileService
	minutes int64
	limit   int
	l       *elog.Component
}

func NewSyncGatewayPaymentsJob(svc service.ReconcileService, minutes int64, limit int) *SyncGatewayPaymentsJob {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &SyncGatewayPaymentsJob{
		svc:     svc,
		minutes: minutes,
		limit:   limit,
		l:       elog.DefaultLogger,
	}
}

func (j *SyncGatewayPaymentsJob) Name() string {
	return "SyncGatewayPaymentsJob"
}

func (j *SyncGatewayPaymentsJob) Run(ctx context.Context) error {
	before := time.Now().Add(-time.Duration(j.minutes) * time.Minute)
	var afterID int64
	for {
		pmts, err := j.svc.FindStalePendingPayments(ctx, before, afterID, j.limit)
		if err != nil {
			return fmt.Errorf("查询待同步的支付记录失败: %w", err)
		}
		for _, pmt := range pmts {
			// 单条失败不影响其他记录, 下一轮会重试
			if err := j.svc.SyncPayment(ctx, pmt); err != nil {
				j.l.Error("同步网关支付结果失败",
					elog.FieldErr(err),
					elog.Int64("paymentId", pmt.ID),
					elog.String("providerOrderRef", pmt.ProviderOrderRef))
			}
		}
		if len(pmts) < j.limit {
			return nil
		}
		afterID = pmts[len(pmts)-1].ID
	}
}
