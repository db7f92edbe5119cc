// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCall(t *testing.T) {
	m := NewMetrics()

	m.RecordCall("filesystem", "success", 0.05)
	m.RecordCall("filesystem", "success", 0.02)
	m.RecordCall("filesystem", "error", 0.01)

	count := testutil.ToFloat64(m.callsTotal.WithLabelValues("filesystem", "success"))
	assert.Equal(t, float64(2), count)

	count = testutil.ToFloat64(m.callsTotal.WithLabelValues("filesystem", "error"))
	assert.Equal(t, float64(1), count)
}

func TestServerReadyGauge(t *testing.T) {
	m := NewMetrics()

	m.ServerReady(1)
	m.ServerReady(1)
	m.ServerReady(-1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.serversReady))
}

func TestSeparateRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordCall("git", "success", 0.01)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			if fam.GetName() == "asmbli_mcp_calls_total" {
				assert.Zero(t, metric.GetCounter().GetValue())
			}
		}
	}
}
