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

// Package observability provides Prometheus instrumentation for the
// server runtime. Metrics are registered on a private registry so
// embedding applications can choose where (or whether) to expose them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instruments the runtime updates as servers are
// started, invoked, and health-checked.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	pingLatency  prometheus.Histogram
	serversReady prometheus.Gauge
}

// NewMetrics creates a Metrics with all instruments registered on a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asmbli_mcp_calls_total",
				Help: "Total tool invocations by server and outcome",
			},
			[]string{"server", "outcome"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asmbli_mcp_call_duration_seconds",
				Help:    "Duration of tool invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"server"},
		),
		pingLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "asmbli_mcp_ping_latency_seconds",
				Help:    "Round-trip latency of health pings",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		serversReady: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "asmbli_mcp_servers_ready",
				Help: "Number of servers currently in the ready state",
			},
		),
	}
}

// Registry exposes the underlying registry for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCall records one tool invocation against a server.
func (m *Metrics) RecordCall(server, outcome string, seconds float64) {
	m.callsTotal.WithLabelValues(server, outcome).Inc()
	m.callDuration.WithLabelValues(server).Observe(seconds)
}

// RecordPing records the round-trip latency of a health ping.
func (m *Metrics) RecordPing(seconds float64) {
	m.pingLatency.Observe(seconds)
}

// ServerReady adjusts the ready-server gauge by delta.
func (m *Metrics) ServerReady(delta float64) {
	m.serversReady.Add(delta)
}
