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
	"time"
)

// Runtime is the surface the gateway and command layer consume.
// *Manager is the production implementation; mcptest provides a mock.
type Runtime interface {
	Start(ctx context.Context, spec LaunchSpec) error
	Stop(ctx context.Context, name string) error
	IsRunning(name string) bool
	Statuses() []Status
	Discover(ctx context.Context, name string) (Capabilities, error)
	Capabilities(name string) (Capabilities, error)
	Ping(ctx context.Context, name string) (time.Duration, error)
	CallTool(ctx context.Context, server, tool string, args map[string]interface{}) (*ToolCallResult, error)
	ReadResource(ctx context.Context, server, uri string) (*ReadResourceResult, error)
}

var _ Runtime = (*Manager)(nil)

// CallTool invokes a tool on a named server, recording call metrics.
func (m *Manager) CallTool(ctx context.Context, server, tool string, args map[string]interface{}) (*ToolCallResult, error) {
	conn, err := m.Conn(server)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := conn.CallTool(ctx, tool, args)
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case result.IsError:
		outcome = "tool_error"
	}
	m.metrics.RecordCall(server, outcome, elapsed.Seconds())
	return result, err
}

// ReadResource reads a resource from a named server, recording call
// metrics.
func (m *Manager) ReadResource(ctx context.Context, server, uri string) (*ReadResourceResult, error) {
	conn, err := m.Conn(server)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := conn.ReadResource(ctx, uri)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.metrics.RecordCall(server, outcome, elapsed.Seconds())
	return result, err
}
