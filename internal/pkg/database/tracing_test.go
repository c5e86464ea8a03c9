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
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"
)

type tracedItem struct {
	Id   int64 `gorm:"primaryKey,autoIncrement"`
	Name string
}

func TestGormTracingPlugin(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tracing.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedItem{}))
	require.NoError(t, db.Use(NewGormTracingPlugin("sqlite")))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedItem{Name: "phone"}).Error)
	var item tracedItem
	err = db.WithContext(ctx).Where("id = ?", 404).First(&item).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	err = db.WithContext(ctx).Exec("SELECT * FROM no_such_table").Error
	assert.Error(t, err)

	create := lastSpan(t, sr, "gorm.create")
	assert.Equal(t, "traced_items", attrOf(create, "db.table").AsString())
	assert.Equal(t, int64(1), attrOf(create, "db.rows_affected").AsInt64())
	assert.Equal(t, "sqlite", attrOf(create, "db.system").AsString())

	query := lastSpan(t, sr, "gorm.query")
	assert.Equal(t, codes.Unset, query.Status().Code)

	raw := lastSpan(t, sr, "gorm.raw")
	assert.Equal(t, codes.Error, raw.Status().Code)
}

func lastSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	spans := sr.Ended()
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Name() == name {
			return spans[i]
		}
	}
	require.FailNow(t, "没有找到 span", name)
	return nil
}

func attrOf(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}
