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
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
	"github.com/mikedesigns-nvisia/asmbli/pkg/observability"
)

const (
	// settleDelay is how long a freshly spawned process gets to
	// crash before the handshake is attempted. Catches commands that
	// exit immediately with a usage error.
	settleDelay = 250 * time.Millisecond

	// stopGrace is how long a server gets to exit after SIGTERM
	// before being killed.
	stopGrace = 5 * time.Second
)

// Manager supervises the set of running MCP server connections. All
// methods are safe for concurrent use.
type Manager struct {
	// conns tracks live connections by server name.
	conns map[string]*Conn

	// starting blocks concurrent starts of the same server while the
	// handshake is in flight.
	starting map[string]bool

	// mu protects conns and starting.
	mu sync.RWMutex

	logger  *slog.Logger
	events  *EventEmitter
	logs    *LogStore
	metrics *observability.Metrics

	// notifyMu guards notifyFn independently of the connection maps
	// so a slow observer never holds up starts or stops.
	notifyMu sync.Mutex
	notifyFn NotificationFunc

	// newTransport is the spawn hook. Tests substitute in-memory
	// transports here.
	newTransport func(LaunchSpec) Transport
}

// NotificationFunc receives server-initiated notifications such as
// progress updates and log messages.
type NotificationFunc func(server, method string, params json.RawMessage)

// ManagerConfig configures the server manager.
type ManagerConfig struct {
	// Logger is used for structured logging (optional).
	Logger *slog.Logger

	// Metrics receives call and lifecycle instrumentation (optional).
	Metrics *observability.Metrics
}

// NewManager creates a new MCP server manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Manager{
		conns:        make(map[string]*Conn),
		starting:     make(map[string]bool),
		logger:       log.WithComponent(logger, "mcp"),
		events:       NewEventEmitter(logger),
		logs:         NewLogStore(),
		metrics:      metrics,
		newTransport: func(spec LaunchSpec) Transport { return newStdioTransport(spec) },
	}
}

// Events exposes the lifecycle event emitter for subscription.
func (m *Manager) Events() *EventEmitter { return m.events }

// OnNotification registers fn to receive progress and log
// notifications from every managed server. Only one observer is
// supported; registering again replaces the previous one.
func (m *Manager) OnNotification(fn NotificationFunc) {
	m.notifyMu.Lock()
	m.notifyFn = fn
	m.notifyMu.Unlock()
}

// forwardNotification hands a server notification to the registered
// observer, if any.
func (m *Manager) forwardNotification(server, method string, params json.RawMessage) {
	m.notifyMu.Lock()
	fn := m.notifyFn
	m.notifyMu.Unlock()
	if fn != nil {
		fn(server, method, params)
	}
}

// Logs exposes the captured diagnostic output of managed servers.
func (m *Manager) Logs() *LogStore { return m.logs }

// Start spawns a server, runs the protocol handshake, and registers
// the connection. Starting a name that already has a live connection
// is an error; a stopped connection under the same name is replaced.
func (m *Manager) Start(ctx context.Context, spec LaunchSpec) error {
	if err := ValidateServerName(spec.Name); err != nil {
		return err
	}
	if spec.Command == "" {
		return ErrInvalidConfig("command is required")
	}

	if err := m.reserve(spec.Name); err != nil {
		return err
	}
	defer m.release(spec.Name)

	m.logger.Info("starting server",
		slog.String(log.ServerKey, spec.Name),
		slog.String("command", spec.Command))

	conn, err := m.launch(ctx, spec)
	if err != nil {
		m.events.Emit(EventFailed, spec.Name, err.Error())
		return err
	}

	m.mu.Lock()
	m.conns[spec.Name] = conn
	m.mu.Unlock()

	m.metrics.ServerReady(1)
	m.events.Emit(EventStarted, spec.Name, "")
	go m.watchConn(spec.Name, conn)

	// Prime the capability cache. A server that cannot list tools is
	// still running; discovery can be retried later.
	if _, err := m.Discover(ctx, spec.Name); err != nil {
		m.logger.Warn("initial discovery failed",
			slog.String(log.ServerKey, spec.Name), log.Error(err))
	}
	return nil
}

// watchConn observes a registered connection until it dies. A death
// not initiated by Stop is an unexpected exit; the dead connection
// stays registered so its last status remains queryable.
func (m *Manager) watchConn(name string, conn *Conn) {
	<-conn.transport.Done()
	<-conn.readerDone

	m.mu.Lock()
	unexpected := m.conns[name] == conn
	m.mu.Unlock()

	m.metrics.ServerReady(-1)
	if unexpected {
		cause := conn.transport.Err()
		msg := "process exited unexpectedly"
		if cause != nil {
			msg = cause.Error()
		}
		m.events.Emit(EventFailed, name, msg)
		m.logger.Warn("server exited unexpectedly",
			slog.String(log.ServerKey, name), log.Error(cause))
	}
}

// reserve claims a name for an in-flight start.
func (m *Manager) reserve(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.starting[name] {
		return ErrServerAlreadyRunning(name)
	}
	if conn, ok := m.conns[name]; ok {
		if conn.State() != StateStopped {
			return ErrServerAlreadyRunning(name)
		}
		// A dead connection under this name is replaced.
		delete(m.conns, name)
	}
	m.starting[name] = true
	return nil
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starting, name)
}

// launch spawns the process and completes the handshake, cleaning up
// on any failure.
func (m *Manager) launch(ctx context.Context, spec LaunchSpec) (*Conn, error) {
	transport := m.newTransport(spec)
	if err := transport.Start(); err != nil {
		return nil, ErrSpawnFailed(spec.Name, err)
	}

	buf := m.logs.Buffer(spec.Name)
	go captureDiagnostics(transport.Diagnostics(), buf)

	// Give the process a moment to fail outright before handshaking.
	select {
	case <-transport.Done():
		return nil, ErrSpawnFailed(spec.Name, m.exitError(spec.Name, transport))
	case <-time.After(settleDelay):
	case <-ctx.Done():
		stopTransport(transport, stopGrace)
		return nil, WrapError(ctx.Err(), ErrorCodeSpawnFailed, fmt.Sprintf("start of MCP server '%s' cancelled", spec.Name))
	}

	conn := newConn(spec.Name, transport, m.logger)
	conn.OnNotification(func(method string, params json.RawMessage) {
		m.forwardNotification(spec.Name, method, params)
	})
	if err := conn.Handshake(ctx); err != nil {
		stopTransport(transport, stopGrace)
		return nil, WrapError(err, ErrorCodeSpawnFailed, fmt.Sprintf("handshake with MCP server '%s' failed", spec.Name))
	}
	return conn, nil
}

// exitError summarizes why a process died, folding in the tail of its
// diagnostic output when there is any.
func (m *Manager) exitError(name string, transport Transport) error {
	cause := transport.Err()
	if cause == nil {
		cause = fmt.Errorf("process exited before handshake")
	}

	tail := m.logs.Tail(name, 5)
	if len(tail) == 0 {
		return cause
	}
	lines := make([]string, 0, len(tail))
	for _, l := range tail {
		lines = append(lines, l.Text)
	}
	return fmt.Errorf("%w; stderr: %s", cause, strings.Join(lines, " | "))
}

// Stop shuts a server down gracefully and removes its connection.
// The server gets stopGrace after SIGTERM before being killed.
func (m *Manager) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	conn, ok := m.conns[name]
	if !ok {
		m.mu.Unlock()
		return ErrServerNotFound(name)
	}
	delete(m.conns, name)
	m.mu.Unlock()

	// Best-effort courtesy notification before the signals start.
	if conn.State() != StateStopped {
		notifyCtx, cancel := context.WithTimeout(ctx, time.Second)
		_ = conn.notify(notifyCtx, methodShutdown, nil)
		cancel()
	}

	stopTransport(conn.transport, stopGrace)
	<-conn.readerDone

	m.events.Emit(EventStopped, name, "")
	m.logger.Info("server stopped", slog.String(log.ServerKey, name))
	return nil
}

// StopAll stops every managed server. Failures are logged, not
// returned; shutdown keeps going.
func (m *Manager) StopAll(ctx context.Context) {
	for _, name := range m.Names() {
		if err := m.Stop(ctx, name); err != nil {
			m.logger.Warn("stop failed", slog.String(log.ServerKey, name), log.Error(err))
		}
	}
}

// Close stops all servers. Implements io.Closer for defer chains.
func (m *Manager) Close() error {
	m.StopAll(context.Background())
	return nil
}

// Conn returns the live connection for a server.
func (m *Manager) Conn(name string) (*Conn, error) {
	m.mu.RLock()
	conn, ok := m.conns[name]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrServerNotFound(name)
	}
	if conn.State() == StateStopped {
		return nil, ErrNotConnected(name)
	}
	return conn, nil
}

// Names returns the names of all managed servers, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.conns))
	for name := range m.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning reports whether a server has a live connection.
func (m *Manager) IsRunning(name string) bool {
	m.mu.RLock()
	conn, ok := m.conns[name]
	m.mu.RUnlock()
	return ok && conn.State() != StateStopped
}

// Statuses returns a snapshot of every managed server, sorted by name.
func (m *Manager) Statuses() []Status {
	names := m.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		m.mu.RLock()
		conn, ok := m.conns[name]
		m.mu.RUnlock()
		if ok {
			out = append(out, conn.Snapshot())
		}
	}
	return out
}
