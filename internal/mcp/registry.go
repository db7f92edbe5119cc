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

package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
)

// DefaultHealthInterval is how often the health loop pings each
// server.
const DefaultHealthInterval = 30 * time.Second

// Discover queries a server's tool and resource inventories and
// caches the result on its connection.
func (m *Manager) Discover(ctx context.Context, name string) (Capabilities, error) {
	conn, err := m.Conn(name)
	if err != nil {
		return Capabilities{}, err
	}

	tools, err := conn.ListTools(ctx)
	if err != nil {
		return Capabilities{}, err
	}

	resources, err := conn.ListResources(ctx)
	if err != nil {
		return Capabilities{}, err
	}

	caps := Capabilities{Tools: tools, Resources: resources}
	conn.setCapabilities(caps)

	m.logger.Debug("discovered capabilities",
		slog.String(log.ServerKey, name),
		slog.Int("tools", len(tools)),
		slog.Int("resources", len(resources)))
	return caps, nil
}

// Capabilities returns the cached discovery result for a server. The
// cache is empty until Discover has run.
func (m *Manager) Capabilities(name string) (Capabilities, error) {
	conn, err := m.Conn(name)
	if err != nil {
		return Capabilities{}, err
	}
	return conn.CachedCapabilities(), nil
}

// Ping checks a server's liveness and drives its health state. A
// failed ping on a ready server moves it to degraded; a successful
// ping on a degraded server moves it back to ready.
func (m *Manager) Ping(ctx context.Context, name string) (time.Duration, error) {
	conn, err := m.Conn(name)
	if err != nil {
		return 0, err
	}

	wasDegraded := conn.State() == StateDegraded

	rtt, err := conn.Ping(ctx)
	if err != nil {
		failures := conn.markDegraded(err.Error())
		if !wasDegraded && conn.State() == StateDegraded {
			m.events.Emit(EventDegraded, name, err.Error())
		}
		m.logger.Warn("ping failed",
			slog.String(log.ServerKey, name),
			slog.Int("consecutive_failures", failures),
			log.Error(err))
		return rtt, err
	}

	conn.markHealthy()
	if wasDegraded {
		m.events.Emit(EventRecovered, name, "")
	}
	m.metrics.RecordPing(rtt.Seconds())
	return rtt, nil
}

// RunHealthLoop pings every managed server on a fixed interval until
// the context is cancelled. Intended to run in its own goroutine.
func (m *Manager) RunHealthLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range m.Names() {
				if !m.IsRunning(name) {
					continue
				}
				pingCtx, cancel := context.WithTimeout(ctx, interval/2)
				_, _ = m.Ping(pingCtx, name)
				cancel()
			}
		}
	}
}
