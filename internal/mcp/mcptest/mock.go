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

// Package mcptest provides test doubles for the mcp package.
package mcptest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

// MockRuntime implements mcp.Runtime for testing. Servers are started
// and stopped in memory; capabilities and call handlers are scripted
// per server.
type MockRuntime struct {
	mu      sync.RWMutex
	running map[string]bool
	caps    map[string]mcp.Capabilities

	// CallFunc handles CallTool when set. The default echoes the
	// tool name and arguments back as text content.
	CallFunc func(ctx context.Context, server, tool string, args map[string]interface{}) (*mcp.ToolCallResult, error)

	// ReadFunc handles ReadResource when set.
	ReadFunc func(ctx context.Context, server, uri string) (*mcp.ReadResourceResult, error)

	// StartErr, when set, fails every Start.
	StartErr error

	// PingErr, when set, fails every Ping.
	PingErr error

	// CallDelay is applied before CallFunc runs.
	CallDelay time.Duration

	// Calls records every CallTool invocation in order.
	Calls []RecordedCall

	// Started records every LaunchSpec passed to Start.
	Started []mcp.LaunchSpec
}

// RecordedCall is one CallTool invocation seen by the mock.
type RecordedCall struct {
	Server string
	Tool   string
	Args   map[string]interface{}
}

// NewMockRuntime creates an empty mock runtime.
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		running: make(map[string]bool),
		caps:    make(map[string]mcp.Capabilities),
	}
}

// SetCapabilities scripts the discovery result for a server.
func (m *MockRuntime) SetCapabilities(server string, caps mcp.Capabilities) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caps[server] = caps
}

// Start marks a server as running.
func (m *MockRuntime) Start(ctx context.Context, spec mcp.LaunchSpec) error {
	if m.StartErr != nil {
		return m.StartErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running[spec.Name] {
		return mcp.ErrServerAlreadyRunning(spec.Name)
	}
	m.running[spec.Name] = true
	m.Started = append(m.Started, spec)
	return nil
}

// Stop marks a server as stopped.
func (m *MockRuntime) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running[name] {
		return mcp.ErrServerNotFound(name)
	}
	delete(m.running, name)
	return nil
}

// IsRunning reports whether Start has been called for a server.
func (m *MockRuntime) IsRunning(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running[name]
}

// Statuses lists running servers as ready.
func (m *MockRuntime) Statuses() []mcp.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.running))
	for name := range m.running {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]mcp.Status, 0, len(names))
	for _, name := range names {
		out = append(out, mcp.Status{
			Name:      name,
			State:     mcp.StateReady,
			ToolCount: len(m.caps[name].Tools),
		})
	}
	return out
}

// Discover returns the scripted capabilities.
func (m *MockRuntime) Discover(ctx context.Context, name string) (mcp.Capabilities, error) {
	return m.Capabilities(name)
}

// Capabilities returns the scripted capabilities.
func (m *MockRuntime) Capabilities(name string) (mcp.Capabilities, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running[name] {
		return mcp.Capabilities{}, mcp.ErrServerNotFound(name)
	}
	return m.caps[name], nil
}

// Ping succeeds with a fixed latency unless PingErr is set.
func (m *MockRuntime) Ping(ctx context.Context, name string) (time.Duration, error) {
	if !m.IsRunning(name) {
		return 0, mcp.ErrServerNotFound(name)
	}
	if m.PingErr != nil {
		return 0, m.PingErr
	}
	return time.Millisecond, nil
}

// CallTool records the call and dispatches to CallFunc.
func (m *MockRuntime) CallTool(ctx context.Context, server, tool string, args map[string]interface{}) (*mcp.ToolCallResult, error) {
	if !m.IsRunning(server) {
		return nil, mcp.ErrNotConnected(server)
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, RecordedCall{Server: server, Tool: tool, Args: args})
	delay := m.CallDelay
	callFunc := m.CallFunc
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if callFunc != nil {
		return callFunc(ctx, server, tool, args)
	}

	return &mcp.ToolCallResult{
		Content: []mcp.ContentItem{
			{Type: "text", Text: fmt.Sprintf("called %s with %v", tool, args)},
		},
	}, nil
}

// ReadResource dispatches to ReadFunc or returns empty text content.
func (m *MockRuntime) ReadResource(ctx context.Context, server, uri string) (*mcp.ReadResourceResult, error) {
	if !m.IsRunning(server) {
		return nil, mcp.ErrNotConnected(server)
	}
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, server, uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{{URI: uri, Text: ""}},
	}, nil
}

var _ mcp.Runtime = (*MockRuntime)(nil)
