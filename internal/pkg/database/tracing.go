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

package database

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	instrumentationName = "github.com/ecodeclub/emall/internal/pkg/database"
	spanKey             = "tracing:span"
)

// GormTracingPlugin 为 gorm 的增删改查加上 OpenTelemetry 埋点
// 事务中的 SELECT ... FOR UPDATE 会以 query 的形式出现
type GormTracingPlugin struct {
	tracer trace.Tracer
	system string
}

func NewGormTracingPlugin(system string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
		system: system,
	}
}

func (p *GormTracingPlugin) Name() string {
	return "GormTracingPlugin"
}

func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{
			op:     "query",
			before: func(name string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(name, fn) },
			after:  func(name string, fn func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(name, fn) },
		},
		{
			op:     "create",
			before: func(name string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(name, fn) },
			after:  func(name string, fn func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(name, fn) },
		},
		{
			op:     "update",
			before: func(name string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(name, fn) },
			after:  func(name string, fn func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(name, fn) },
		},
		{
			op:     "delete",
			before: func(name string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(name, fn) },
			after:  func(name string, fn func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(name, fn) },
		},
		{
			op:     "raw",
			before: func(name string, fn func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(name, fn) },
			after:  func(name string, fn func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(name, fn) },
		},
	}
	for _, h := range hooks {
		if err := h.before("tracing:before_"+h.op, p.start(h.op)); err != nil {
			return err
		}
		if err := h.after("tracing:after_"+h.op, p.end); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) start(op string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil || db.Statement.Context == nil {
			return
		}
		ctx, span := p.tracer.Start(db.Statement.Context, "gorm."+op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", p.system),
				attribute.String("db.operation", op),
			))
		db.Statement.Context = ctx
		db.InstanceSet(spanKey, span)
	}
}

func (p *GormTracingPlugin) end(db *gorm.DB) {
	val, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := val.(trace.Span)
	if !ok {
		return
	}
	defer span.End()
	attrs := []attribute.KeyValue{
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	}
	if table := tableOf(db); table != "" {
		attrs = append(attrs, attribute.String("db.table", table))
	}
	if sql := db.Statement.SQL.String(); sql != "" {
		attrs = append(attrs, attribute.String("db.statement", sql))
	}
	span.SetAttributes(attrs...)
	// 没找到记录不算错误
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}

func tableOf(db *gorm.DB) string {
	if db.Statement.Schema != nil {
		return db.Statement.Schema.Table
	}
	return db.Statement.Table
}
