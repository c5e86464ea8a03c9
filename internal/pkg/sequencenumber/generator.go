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
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Length 序列号的固定长度
const Length = 32

type (
	NowFunc    func() time.Time
	RandomFunc func() string
)

// Generator 生成对外暴露的不透明单号:
// 前缀 + 毫秒时间戳 + 归属用户 id 后四位 + shortuuid, 截断到 Length 位
type Generator struct {
	prefix string
	now    NowFunc
	random RandomFunc
}

func NewGeneratorWith(prefix string, now NowFunc, random RandomFunc) *Generator {
	return &Generator{
		prefix: strings.ToUpper(prefix),
		now:    now,
		random: random,
	}
}

func NewGenerator(prefix string) *Generator {
	return NewGeneratorWith(prefix, time.Now, func() string { return shortuuid.New() })
}

func (g *Generator) Generate(ownerID int64) string {
	lastFour := fmt.Sprintf("%04d", ownerID%10000)
	var sb strings.Builder
	sb.WriteString(g.prefix)
	sb.WriteString(fmt.Sprintf("%d", g.now().UnixMilli()))
	sb.WriteString(lastFour)
	// shortuuid 的长度是 22, 不够时重复补齐
	for sb.Len() < Length {
		sb.WriteString(g.random())
	}
	return sb.String()[:Length]
}
