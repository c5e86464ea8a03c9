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

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsBuilder struct {
	durations *prometheus.HistogramVec
	requests  *prometheus.CounterVec
	inflight  prometheus.Gauge
}

// NewMetricsBuilder server 用于区分 web 与 admin 两个服务
func NewMetricsBuilder(reg prometheus.Registerer, namespace, server string) *MetricsBuilder {
	factory := promauto.With(reg)
	labels := []string{"method", "path", "status_code"}
	return &MetricsBuilder{
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP 请求耗时",
			ConstLabels: prometheus.Labels{"server": server},
			Buckets:     []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, labels),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP 请求数",
			ConstLabels: prometheus.Labels{"server": server},
		}, labels),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "http_requests_inflight",
			Help:        "正在处理的 HTTP 请求数",
			ConstLabels: prometheus.Labels{"server": server},
		}),
	}
}

func (b *MetricsBuilder) Build() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		b.inflight.Inc()
		defer b.inflight.Dec()

		ctx.Next()

		// 未匹配到路由时用原始路径会导致基数爆炸
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		b.durations.WithLabelValues(ctx.Request.Method, path, status).Observe(time.Since(start).Seconds())
		b.requests.WithLabelValues(ctx.Request.Method, path, status).Inc()
	}
}
