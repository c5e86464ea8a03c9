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
	"strings"

	"github.com/gotomicro/ego/core/econf"
	"gopkg.in/yaml.v3"
)

const testConfig = `
payment:
  gateway:
    baseURL: "http://127.0.0.1:0"
    keyID: "rzp_test_key"
    keySecret: "rzp_test_secret"
    webhookSecret: "webhook_secret"
    currency: "INR"
    timeout: 2s
order:
  nodeID: 1
  leaseTTL: 2m
  retryCutoff: 15m
  requestIDTTL: 10m
job:
  syncGatewayPayments:
    minutes: 30
    limit: 2
`

// InitConfig 加载测试用的配置
func InitConfig() {
	if err := econf.LoadFromReader(strings.NewReader(testConfig), yaml.Unmarshal); err != nil {
		panic(err)
	}
}
