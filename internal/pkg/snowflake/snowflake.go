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
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ecodeclub/ekit/syncx"
)

// Biz 业务线, 不同业务线使用独立的 snowflake 节点
type Biz uint

const (
	BizPayment Biz = iota
	BizRefund
)

const (
	maxNode uint = 31
	maxBiz  uint = 31
)

var (
	ErrExceedNode = errors.New("node超出限制")
	ErrExceedBiz  = errors.New("业务线超出限制")
	ErrUnknownBiz = errors.New("未知的业务线")
)

type ID int64

// Biz 从节点号的高位解析出业务线
func (f ID) Biz() Biz {
	return Biz(snowflake.ID(f).Node() >> 5)
}

func (f ID) Int64() int64 {
	return int64(f)
}

func (f ID) String() string {
	return snowflake.ID(f).String()
}

// Generator 节点号的低 5 位是机器号, 高 5 位是业务线
type Generator struct {
	nodes syncx.Map[Biz, *snowflake.Node]
}

func NewGenerator(nodeID uint, bizs uint) (*Generator, error) {
	if nodeID > maxNode {
		return nil, fmt.Errorf("%w: %d", ErrExceedNode, nodeID)
	}
	if bizs > maxBiz+1 {
		return nil, fmt.Errorf("%w: %d", ErrExceedBiz, bizs)
	}
	g := &Generator{}
	for i := uint(0); i < bizs; i++ {
		n, err := snowflake.NewNode(int64(i<<5 | nodeID))
		if err != nil {
			return nil, err
		}
		g.nodes.Store(Biz(i), n)
	}
	return g, nil
}

func (g *Generator) Generate(biz Biz) (ID, error) {
	n, ok := g.nodes.Load(biz)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBiz, biz)
	}
	return ID(n.Generate()), nil
}

// NextSN 生成带前缀的单号, 例如支付流水号 PAY1728000000000000000
func (g *Generator) NextSN(biz Biz, prefix string) (string, error) {
	id, err := g.Generate(biz)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(prefix) + id.String(), nil
}
