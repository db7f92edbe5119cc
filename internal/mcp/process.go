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
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// LaunchSpec describes how to spawn one MCP server process.
type LaunchSpec struct {
	// Name identifies the server in logs and errors.
	Name string
	// Command is the executable to run.
	Command string
	// Args are passed verbatim to the command.
	Args []string
	// Env entries ("KEY=value") are appended to the parent environment.
	Env []string
	// Dir is the working directory, empty for the parent's.
	Dir string
}

// stdioTransport runs an MCP server as a child process and exposes
// its stdin, stdout, and stderr pipes.
type stdioTransport struct {
	spec LaunchSpec

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	done     chan struct{}
	doneOnce sync.Once

	mu      sync.Mutex
	waitErr error
}

// newStdioTransport prepares a transport for the given spec. The
// process is not spawned until Start.
func newStdioTransport(spec LaunchSpec) *stdioTransport {
	return &stdioTransport{
		spec: spec,
		done: make(chan struct{}),
	}
}

func (t *stdioTransport) Start() error {
	cmd := exec.Command(t.spec.Command, t.spec.Args...)
	cmd.Dir = t.spec.Dir
	cmd.Env = append(os.Environ(), t.spec.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.stderr = stderr

	go t.reap()
	return nil
}

// reap waits for the process and records its exit status.
func (t *stdioTransport) reap() {
	err := t.cmd.Wait()
	t.mu.Lock()
	t.waitErr = err
	t.mu.Unlock()
	t.doneOnce.Do(func() { close(t.done) })
}

func (t *stdioTransport) Input() io.Writer      { return t.stdin }
func (t *stdioTransport) Output() io.Reader     { return t.stdout }
func (t *stdioTransport) Diagnostics() io.Reader { return t.stderr }

func (t *stdioTransport) PID() int {
	if t.cmd == nil || t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

func (t *stdioTransport) Done() <-chan struct{} { return t.done }

func (t *stdioTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waitErr
}

// Terminate sends SIGTERM so the server can shut down cleanly.
func (t *stdioTransport) Terminate() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}
	return t.cmd.Process.Signal(syscall.SIGTERM)
}

func (t *stdioTransport) Kill() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}
	return t.cmd.Process.Kill()
}

func (t *stdioTransport) Close() error {
	if t.stdin != nil {
		t.stdin.Close()
	}
	return nil
}

// stopTransport closes the input stream, asks the transport to
// terminate, and escalates to Kill if it has not exited within grace.
func stopTransport(t Transport, grace time.Duration) {
	t.Close()
	_ = t.Terminate()

	select {
	case <-t.Done():
		return
	case <-time.After(grace):
	}

	_ = t.Kill()
	<-t.Done()
}
