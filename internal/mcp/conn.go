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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
)

const (
	// DefaultCallTimeout bounds a call when the caller's context has
	// no earlier deadline.
	DefaultCallTimeout = 30 * time.Second

	// handshakeTimeout bounds the initialize exchange.
	handshakeTimeout = 10 * time.Second

	// Read buffer sizing for the frame scanner. Tool results can be
	// large; a single frame is capped at maxFrameSize.
	initialScanBuffer = 64 * 1024
	maxFrameSize      = 1024 * 1024

	// Outbound rate limiting. Bursty discovery traffic is fine, a
	// runaway caller is not.
	outboundRatePerSec = 64
	outboundBurst      = 16
)

// rpcResult is what a pending call resolves to.
type rpcResult struct {
	result json.RawMessage
	err    error
}

// pendingCall is one in-flight request awaiting its correlated reply.
// It resolves exactly once: by reply, by deadline, or by teardown.
type pendingCall struct {
	id     int64
	method string
	issued time.Time
	ch     chan rpcResult
}

// Conn is one live connection to an MCP server process. All exported
// methods are safe for concurrent use.
type Conn struct {
	name      string
	transport Transport
	logger    *slog.Logger
	limiter   *rate.Limiter

	nextID atomic.Int64

	// writeMu serializes frame writes so concurrent calls cannot
	// interleave bytes on the pipe.
	writeMu sync.Mutex

	// mu guards pending, state, and the fields below it.
	mu           sync.Mutex
	pending      map[int64]*pendingCall
	state        State
	serverInfo   ServerInfo
	caps         Capabilities
	lastError    string
	pingFailures int
	startedAt    time.Time
	notifyFn     func(method string, params json.RawMessage)

	readerDone chan struct{}
	closeOnce  sync.Once
}

// newConn wires a connection over a started transport. The caller
// must run Handshake before issuing calls.
func newConn(name string, t Transport, logger *slog.Logger) *Conn {
	c := &Conn{
		name:       name,
		transport:  t,
		logger:     log.WithServer(logger, name),
		limiter:    rate.NewLimiter(rate.Limit(outboundRatePerSec), outboundBurst),
		pending:    make(map[int64]*pendingCall),
		state:      StateInitializing,
		startedAt:  time.Now(),
		readerDone: make(chan struct{}),
	}
	go c.readLoop()
	go c.watchExit()
	return c
}

// Name returns the server name this connection belongs to.
func (c *Conn) Name() string { return c.name }

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ServerInfo returns the identity reported during the handshake.
func (c *Conn) ServerInfo() ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// PendingCount reports the number of in-flight calls.
func (c *Conn) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Snapshot returns a point-in-time status for this connection.
func (c *Conn) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Name:       c.name,
		State:      c.state,
		PID:        c.transport.PID(),
		Server:     c.serverInfo,
		ToolCount:  len(c.caps.Tools),
		LastError:  c.lastError,
		PingFailed: c.pingFailures,
	}
	if c.state != StateStopped {
		st.Uptime = time.Since(c.startedAt).Round(time.Second).String()
	}
	return st
}

// Handshake runs the initialize exchange and moves the connection to
// the ready state.
func (c *Conn) Handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	params := initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo: clientInfo{
			Name:    "asmbli",
			Version: "1.0.0",
		},
	}

	raw, err := c.call(ctx, methodInitialize, params)
	if err != nil {
		return err
	}

	var result initializeResult
	if err := codec.Unmarshal(raw, &result); err != nil {
		return ErrParse(c.name, err)
	}

	if err := c.notify(ctx, methodInitialized, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	if c.state == StateInitializing {
		c.state = StateReady
	}
	c.mu.Unlock()

	c.logger.Info("handshake complete",
		slog.String("server_name", result.ServerInfo.Name),
		slog.String("server_version", result.ServerInfo.Version),
		slog.String("protocol", result.ProtocolVersion))
	return nil
}

// call issues a request and blocks for its correlated reply. The
// pending entry is registered before the frame is written so a reply
// can never arrive unmatched.
func (c *Conn) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	deadline := DefaultCallTimeout
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}

	id := c.nextID.Add(1)
	pc := &pendingCall{
		id:     id,
		method: method,
		issued: time.Now(),
		ch:     make(chan rpcResult, 1),
	}

	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return nil, ErrNotConnected(c.name)
	}
	c.pending[id] = pc
	c.mu.Unlock()

	if err := c.writeFrame(ctx, rpcRequest{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	}); err != nil {
		c.takePending(id)
		return nil, WrapError(err, ErrorCodeNotConnected, fmt.Sprintf("write to MCP server '%s' failed", c.name))
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-pc.ch:
		return res.result, res.err
	case <-timer.C:
		if c.takePending(id) != nil {
			return nil, ErrCallTimeout(c.name, method, deadline.Seconds())
		}
		// Reply won the race; it is already in the channel.
		res := <-pc.ch
		return res.result, res.err
	case <-ctx.Done():
		if c.takePending(id) != nil {
			return nil, WrapError(ctx.Err(), ErrorCodeTimeout, fmt.Sprintf("call '%s' to MCP server '%s' cancelled", method, c.name))
		}
		res := <-pc.ch
		return res.result, res.err
	}
}

// notify sends a notification. No reply is expected.
func (c *Conn) notify(ctx context.Context, method string, params interface{}) error {
	return c.writeFrame(ctx, rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

func (c *Conn) writeFrame(ctx context.Context, req rpcRequest) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	data, err := encodeFrame(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.transport.Input().Write(data)
	return err
}

// takePending removes and returns the pending call for id, or nil if
// it was already resolved. Removal under the lock is what makes
// resolution exactly-once.
func (c *Conn) takePending(id int64) *pendingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	return pc
}

// readLoop consumes reply frames until the output stream closes.
func (c *Conn) readLoop() {
	defer close(c.readerDone)

	scanner := bufio.NewScanner(c.transport.Output())
	scanner.Buffer(make([]byte, initialScanBuffer), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		c.handleFrame(line)
	}

	// A scanner error means framing cannot resynchronize, so the
	// connection is unusable even if the process is still alive.
	// Tear down first so pending calls fail fast, then drop the
	// transport so the exit watcher and manager observe the death.
	if err := scanner.Err(); err != nil {
		c.logger.Warn("read loop failed, dropping connection", log.Error(err))
		c.teardown(err)
		_ = c.transport.Kill()
	}
}

// handleFrame routes one inbound frame. A malformed frame is logged
// and dropped; the connection stays up.
func (c *Conn) handleFrame(line []byte) {
	msg, err := decodeFrame(line)
	if err != nil {
		c.logger.Warn("dropping malformed frame", log.Error(err))
		return
	}

	switch {
	case msg.ID != nil && msg.Method == "":
		c.resolve(msg)
	case msg.Method != "" && msg.ID == nil:
		c.handleNotification(msg)
	case msg.Method != "" && msg.ID != nil:
		c.rejectServerRequest(msg)
	default:
		c.logger.Warn("dropping frame with neither id nor method")
	}
}

// resolve matches a reply to its pending call. Late replies, after a
// timeout already resolved the call, are dropped.
func (c *Conn) resolve(msg rpcMessage) {
	pc := c.takePending(*msg.ID)
	if pc == nil {
		c.logger.Debug("dropping reply with no pending call",
			slog.Int64(log.RequestIDKey, *msg.ID))
		return
	}

	if msg.Error != nil {
		pc.ch <- rpcResult{err: ErrRemote(c.name, pc.method, msg.Error.Code, msg.Error.Message)}
		return
	}
	pc.ch <- rpcResult{result: msg.Result}
}

func (c *Conn) handleNotification(msg rpcMessage) {
	if !knownNotifications[msg.Method] {
		c.logger.Debug("unknown notification", slog.String(log.MethodKey, msg.Method))
		return
	}
	c.logger.Debug("notification", slog.String(log.MethodKey, msg.Method))

	c.mu.Lock()
	fn := c.notifyFn
	c.mu.Unlock()
	if fn != nil {
		fn(msg.Method, msg.Params)
	}
}

// OnNotification registers fn to receive known server notifications
// such as progress and log messages. Only one observer is supported;
// registering again replaces the previous one.
func (c *Conn) OnNotification(fn func(method string, params json.RawMessage)) {
	c.mu.Lock()
	c.notifyFn = fn
	c.mu.Unlock()
}

// rejectServerRequest answers a server-to-client request with
// method-not-found. This client does not implement sampling or other
// reverse requests.
func (c *Conn) rejectServerRequest(msg rpcMessage) {
	c.logger.Debug("rejecting server request", slog.String(log.MethodKey, msg.Method))

	reply := struct {
		JSONRPC string    `json:"jsonrpc"`
		ID      *int64    `json:"id"`
		Error   *rpcError `json:"error"`
	}{
		JSONRPC: "2.0",
		ID:      msg.ID,
		Error: &rpcError{
			Code:    codeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", msg.Method),
		},
	}

	data, err := codec.Marshal(reply)
	if err != nil {
		return
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, _ = c.transport.Input().Write(data)
}

// watchExit tears the connection down when the transport terminates.
func (c *Conn) watchExit() {
	<-c.transport.Done()
	c.teardown(c.transport.Err())
}

// teardown moves the connection to stopped and fails every pending
// call. Pending callers see a connection-lost error rather than
// waiting out their deadlines.
func (c *Conn) teardown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateStopped
		if cause != nil {
			c.lastError = cause.Error()
		}
		orphans := make([]*pendingCall, 0, len(c.pending))
		for _, pc := range c.pending {
			orphans = append(orphans, pc)
		}
		c.pending = make(map[int64]*pendingCall)
		c.mu.Unlock()

		for _, pc := range orphans {
			pc.ch <- rpcResult{err: ErrConnectionLost(c.name, cause)}
		}

		if len(orphans) > 0 {
			c.logger.Warn("connection lost with calls in flight",
				slog.Int("pending", len(orphans)), log.Error(cause))
		}
	})
}

// markDegraded records a failed health ping. Returns the new failure
// count.
func (c *Conn) markDegraded(reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingFailures++
	c.lastError = reason
	if c.state == StateReady {
		c.state = StateDegraded
	}
	return c.pingFailures
}

// markHealthy records a successful health ping, recovering from the
// degraded state if needed.
func (c *Conn) markHealthy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingFailures = 0
	if c.state == StateDegraded {
		c.state = StateReady
	}
}

// setCapabilities caches the most recent discovery result.
func (c *Conn) setCapabilities(caps Capabilities) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caps = caps
}

// CachedCapabilities returns the last discovery result.
func (c *Conn) CachedCapabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}
