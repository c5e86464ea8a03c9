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

package testioc

import (
	"context"

	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
)

var topics = map[string]int{
	"audit_events": 1,
}

// InitMQ 替换用内存实现, 方便测试
func InitMQ() mq.MQ {
	q := memory.NewMQ()
	for name, partitions := range topics {
		if err := q.CreateTopic(context.Background(), name, partitions); err != nil {
			panic(err)
		}
	}
	return q
}
