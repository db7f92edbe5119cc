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

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mikedesigns-nvisia/asmbli/internal/bridge"
	"github.com/mikedesigns-nvisia/asmbli/internal/log"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

// Gateway is the caller-facing surface over the catalog and the
// server runtime. All enable and disable transitions for one id are
// serialized.
type Gateway struct {
	catalog *Catalog
	rt      mcp.Runtime
	logger  *slog.Logger
	tracer  trace.Tracer

	// mu guards enabled and locks.
	mu      sync.Mutex
	enabled map[string]bool
	locks   map[string]*sync.Mutex

	router *bridge.Router
}

// NewGateway wires a gateway over a catalog and runtime.
func NewGateway(cat *Catalog, rt mcp.Runtime, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		catalog: cat,
		rt:      rt,
		logger:  log.WithComponent(logger, "gateway"),
		tracer:  otel.Tracer("asmbli/gateway"),
		enabled: make(map[string]bool),
		locks:   make(map[string]*sync.Mutex),
	}
	g.router = bridge.NewRouter(g, logger)
	return g
}

// lockFor returns the mutex serializing transitions for one id.
func (g *Gateway) lockFor(id string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	return l
}

// Enable validates credentials, launches the server, and marks it
// enabled. No process is spawned when a required credential is
// missing; the error names every absent variable.
func (g *Gateway) Enable(ctx context.Context, id string, creds map[string]string) error {
	ctx, span := g.tracer.Start(ctx, "gateway.enable",
		trace.WithAttributes(attribute.String("server.id", id)))
	defer span.End()

	lock := g.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	spec, ok := g.catalog.Get(id)
	if !ok {
		return mcp.ErrServerNotFound(id)
	}

	if !spec.SupportsPlatform(runtime.GOOS) {
		return mcp.ErrInvalidConfig(
			fmt.Sprintf("server '%s' does not support platform %s", id, runtime.GOOS))
	}

	if missing := spec.MissingCredentials(creds); len(missing) > 0 {
		return mcp.NewError(mcp.ErrorCodeConfig,
			fmt.Sprintf("MCP server '%s' is missing required credentials", id)).
			WithDetail(strings.Join(missing, ", ")).
			WithSuggestions(
				fmt.Sprintf("Provide the missing values: asmbli enable %s --env %s=...", id, missing[0]),
				"Credentials can also be loaded from a .env file with --env-file",
			)
	}

	env := make([]string, 0, len(spec.Defaults)+len(creds))
	for key, value := range spec.Defaults {
		if _, overridden := creds[key]; overridden {
			continue
		}
		env = append(env, key+"="+value)
	}
	for key, value := range creds {
		env = append(env, key+"="+value)
	}
	sort.Strings(env)

	if err := g.rt.Start(ctx, mcp.LaunchSpec{
		Name:    id,
		Command: spec.Command,
		Args:    spec.Args,
		Dir:     spec.Workdir,
		Env:     env,
	}); err != nil {
		return err
	}

	g.mu.Lock()
	g.enabled[id] = true
	g.mu.Unlock()

	g.logger.Info("server enabled", slog.String(log.ServerKey, id))
	return nil
}

// Disable stops a server and clears its enabled flag. The flag is
// cleared no matter how the stop goes; a failed stop is logged, not
// returned.
func (g *Gateway) Disable(ctx context.Context, id string) error {
	ctx, span := g.tracer.Start(ctx, "gateway.disable",
		trace.WithAttributes(attribute.String("server.id", id)))
	defer span.End()

	lock := g.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	g.mu.Lock()
	delete(g.enabled, id)
	g.mu.Unlock()

	if err := g.rt.Stop(ctx, id); err != nil {
		g.logger.Warn("stop during disable failed",
			slog.String(log.ServerKey, id), log.Error(err))
	}

	g.logger.Info("server disabled", slog.String(log.ServerKey, id))
	return nil
}

// Enabled reports whether a server is enabled and running.
func (g *Gateway) Enabled(id string) bool {
	g.mu.Lock()
	on := g.enabled[id]
	g.mu.Unlock()
	return on && g.rt.IsRunning(id)
}

// Status maps every catalog id to whether it is enabled and running.
func (g *Gateway) Status() map[string]bool {
	out := make(map[string]bool)
	for _, spec := range g.catalog.List() {
		out[spec.ID] = g.Enabled(spec.ID)
	}
	return out
}

// ListSpecs returns the catalog entries sorted by id.
func (g *Gateway) ListSpecs() []ServerSpec {
	return g.catalog.List()
}

// ServerStatuses returns runtime snapshots of every managed server.
func (g *Gateway) ServerStatuses() []mcp.Status {
	return g.rt.Statuses()
}

// ReadyServers returns the enabled servers whose connections are in
// the ready state, sorted by id.
func (g *Gateway) ReadyServers() []string {
	var out []string
	for _, st := range g.rt.Statuses() {
		if st.State != mcp.StateReady {
			continue
		}
		g.mu.Lock()
		on := g.enabled[st.Name]
		g.mu.Unlock()
		if on {
			out = append(out, st.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Capabilities returns the cached capability set for a server.
func (g *Gateway) Capabilities(id string) (mcp.Capabilities, error) {
	return g.rt.Capabilities(id)
}

// Discover refreshes a server's capability cache.
func (g *Gateway) Discover(ctx context.Context, id string) (mcp.Capabilities, error) {
	return g.rt.Discover(ctx, id)
}

// Invoke calls a tool on an enabled server.
func (g *Gateway) Invoke(ctx context.Context, id, tool string, args map[string]interface{}) (*mcp.ToolCallResult, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.invoke",
		trace.WithAttributes(
			attribute.String("server.id", id),
			attribute.String("tool.name", tool)))
	defer span.End()

	if !g.Enabled(id) {
		return nil, mcp.ErrNotConnected(id)
	}
	return g.rt.CallTool(ctx, id, tool, args)
}

// ReadResource reads a resource from an enabled server.
func (g *Gateway) ReadResource(ctx context.Context, id, uri string) (*mcp.ReadResourceResult, error) {
	if !g.Enabled(id) {
		return nil, mcp.ErrNotConnected(id)
	}
	return g.rt.ReadResource(ctx, id, uri)
}

// Ping checks an enabled server's health.
func (g *Gateway) Ping(ctx context.Context, id string) (time.Duration, error) {
	if !g.Enabled(id) {
		return 0, mcp.ErrNotConnected(id)
	}
	return g.rt.Ping(ctx, id)
}

// Route sends free-form request text through the tool-routing bridge
// across every enabled ready server.
func (g *Gateway) Route(ctx context.Context, text string) (*bridge.Outcome, error) {
	return g.router.Route(ctx, text)
}

// StreamRoute is Route with chunked delivery of the response.
func (g *Gateway) StreamRoute(ctx context.Context, text string, onChunk func(bridge.Chunk) error) (*bridge.Outcome, error) {
	return g.router.StreamRoute(ctx, text, onChunk)
}
