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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// pipeTransport is an in-memory Transport backed by io.Pipe pairs.
// The far ends play the role of the server process.
type pipeTransport struct {
	// client writes requests to clientIn; the fake server reads them
	// from serverIn.
	serverIn *io.PipeReader
	clientIn *io.PipeWriter

	// the fake server writes replies to serverOut; the client reads
	// them from clientOut.
	clientOut *io.PipeReader
	serverOut *io.PipeWriter

	diagR *io.PipeReader
	diagW *io.PipeWriter

	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	exitErr error

	startErr error
}

func newPipeTransport() *pipeTransport {
	serverIn, clientIn := io.Pipe()
	clientOut, serverOut := io.Pipe()
	diagR, diagW := io.Pipe()
	return &pipeTransport{
		serverIn:  serverIn,
		clientIn:  clientIn,
		clientOut: clientOut,
		serverOut: serverOut,
		diagR:     diagR,
		diagW:     diagW,
		done:      make(chan struct{}),
	}
}

func (t *pipeTransport) Start() error          { return t.startErr }
func (t *pipeTransport) Input() io.Writer      { return t.clientIn }
func (t *pipeTransport) Output() io.Reader     { return t.clientOut }
func (t *pipeTransport) Diagnostics() io.Reader { return t.diagR }
func (t *pipeTransport) PID() int              { return 4242 }
func (t *pipeTransport) Done() <-chan struct{} { return t.done }

func (t *pipeTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitErr
}

func (t *pipeTransport) Terminate() error {
	t.exit(nil)
	return nil
}

func (t *pipeTransport) Kill() error {
	t.exit(fmt.Errorf("killed"))
	return nil
}

func (t *pipeTransport) Close() error {
	t.clientIn.Close()
	return nil
}

// exit simulates the server process dying with the given status.
func (t *pipeTransport) exit(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.exitErr = err
		t.mu.Unlock()
		t.serverOut.Close()
		t.diagW.Close()
		t.serverIn.Close()
		close(t.done)
	})
}

// fakeServer speaks the server side of the protocol over a
// pipeTransport. The handshake is answered automatically; other
// requests go to onRequest.
type fakeServer struct {
	tr *pipeTransport

	// onRequest handles non-handshake requests. Nil means every
	// request is answered with an empty result object.
	onRequest func(s *fakeServer, msg rpcMessage)

	mu sync.Mutex
}

func newFakeServer(tr *pipeTransport) *fakeServer {
	return &fakeServer{tr: tr}
}

func (s *fakeServer) run() {
	scanner := bufio.NewScanner(s.tr.serverIn)
	scanner.Buffer(make([]byte, initialScanBuffer), maxFrameSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := decodeFrame(line)
		if err != nil {
			continue
		}
		s.dispatch(msg)
	}
}

func (s *fakeServer) dispatch(msg rpcMessage) {
	switch {
	case msg.Method == methodInitialize && msg.ID != nil:
		s.reply(*msg.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "fake-server", Version: "0.1.0"},
		})
	case msg.ID == nil:
		// notifications need no reply
	default:
		if s.onRequest != nil {
			s.onRequest(s, msg)
			return
		}
		if msg.ID != nil {
			s.reply(*msg.ID, map[string]interface{}{})
		}
	}
}

// reply sends a success response frame.
func (s *fakeServer) reply(id int64, result interface{}) {
	data, err := codec.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
	if err != nil {
		panic(err)
	}
	s.send(string(data))
}

// replyError sends an error response frame.
func (s *fakeServer) replyError(id int64, code int, message string) {
	data, _ := codec.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
	s.send(string(data))
}

// send writes one raw line to the client.
func (s *fakeServer) send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.tr.serverOut, "%s\n", line)
}

// newTestConn wires a Conn to a running fake server and completes the
// handshake.
func newTestConn(t *testing.T, onRequest func(s *fakeServer, msg rpcMessage)) (*Conn, *fakeServer, *pipeTransport) {
	t.Helper()

	tr := newPipeTransport()
	srv := newFakeServer(tr)
	srv.onRequest = onRequest
	go srv.run()

	conn := newConn("test-server", tr, slog.Default())
	require.NoError(t, conn.Handshake(context.Background()))
	require.Equal(t, StateReady, conn.State())

	t.Cleanup(func() { tr.exit(nil) })
	return conn, srv, tr
}
