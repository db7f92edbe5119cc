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

import "io"

// Transport is the byte pipe a connection runs over. The production
// implementation wraps a child process; tests substitute in-memory
// pipes.
type Transport interface {
	// Start brings the transport up. Input, Output, and Diagnostics
	// are valid only after Start returns nil.
	Start() error

	// Input is the stream the client writes request frames to.
	Input() io.Writer

	// Output is the stream the server writes reply frames to.
	Output() io.Reader

	// Diagnostics is the server's side-channel for free-form log text.
	Diagnostics() io.Reader

	// PID identifies the underlying process, zero if there is none.
	PID() int

	// Done is closed when the transport has terminated for any reason.
	Done() <-chan struct{}

	// Err reports why the transport terminated. Valid after Done is
	// closed; nil means a clean exit.
	Err() error

	// Terminate requests a graceful shutdown.
	Terminate() error

	// Kill forces the transport down immediately.
	Kill() error

	// Close releases resources. Safe to call at any point.
	Close() error
}
