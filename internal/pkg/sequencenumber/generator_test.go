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

package sequencenumber

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_GenerateWith(t *testing.T) {
	t.Parallel()
	ts := time.UnixMilli(1234554320123)
	g := NewGeneratorWith("em", func() time.Time { return ts }, func() string { return "nUfojcH2M5j2j3Tk5A1mf2" })

	testCases := []struct {
		name     string
		ownerID  int64
		expected string
	}{
		{
			name:     "不足四位补零",
			ownerID:  1,
			expected: "EM12345543201230001nUfojcH2M5j2j",
		},
		{
			name:     "取后四位",
			ownerID:  123456789,
			expected: "EM12345543201236789nUfojcH2M5j2j",
		},
		{
			name:     "后四位全为零",
			ownerID:  10000,
			expected: "EM12345543201230000nUfojcH2M5j2j",
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sn := g.Generate(tc.ownerID)
			assert.Equal(t, tc.expected, sn)
			assert.Len(t, sn, Length)
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()
	g := NewGenerator("EM")
	a, b := g.Generate(123456789), g.Generate(123456789)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "EM"))
	assert.Contains(t, a, "6789")
	assert.Len(t, a, Length)
}

func TestGenerator_ShortRandom(t *testing.T) {
	t.Parallel()
	g := NewGeneratorWith("", func() time.Time { return time.UnixMilli(1) }, func() string { return "ab" })
	sn := g.Generate(7)
	assert.Equal(t, "10007"+strings.Repeat("ab", 14)[:27], sn)
}
