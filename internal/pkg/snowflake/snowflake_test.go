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

package snowflake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		nodeID  uint
		bizs    uint
		wantErr error
	}{
		{
			name:    "nodeID超出限制",
			nodeID:  32,
			bizs:    2,
			wantErr: ErrExceedNode,
		},
		{
			name:    "业务线超出限制",
			nodeID:  3,
			bizs:    33,
			wantErr: ErrExceedBiz,
		},
		{
			name:   "创建成功",
			nodeID: 0,
			bizs:   2,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewGenerator(tc.nodeID, tc.bizs)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()
	g, err := NewGenerator(1, 2)
	require.NoError(t, err)
	seen := make(map[int64]struct{}, 20000)
	for _, biz := range []Biz{BizPayment, BizRefund} {
		for i := 0; i < 10000; i++ {
			id, err := g.Generate(biz)
			require.NoError(t, err)
			assert.Equal(t, biz, id.Biz())
			_, dup := seen[id.Int64()]
			require.False(t, dup)
			seen[id.Int64()] = struct{}{}
		}
	}

	_, err = g.Generate(Biz(2))
	assert.ErrorIs(t, err, ErrUnknownBiz)
}

func TestGenerator_NextSN(t *testing.T) {
	t.Parallel()
	g, err := NewGenerator(1, 1)
	require.NoError(t, err)
	a, err := g.NextSN(BizPayment, "pay")
	require.NoError(t, err)
	b, err := g.NextSN(BizPayment, "pay")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, "PAY"))
	assert.NotEqual(t, a, b)
}
