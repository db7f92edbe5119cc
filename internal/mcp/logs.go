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
	"io"
	"sync"
	"time"
)

// LogLine is one line of diagnostic output captured from a server's
// stderr.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// LogBuffer is a fixed-size ring of captured diagnostic lines. Old
// lines are overwritten once the buffer fills.
type LogBuffer struct {
	mu    sync.RWMutex
	lines []LogLine
	next  int
	count int
}

const defaultLogCapacity = 1000

// NewLogBuffer creates a buffer holding at most capacity lines.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &LogBuffer{lines: make([]LogLine, capacity)}
}

// Append records one line, evicting the oldest when full.
func (b *LogBuffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.next] = LogLine{Timestamp: time.Now(), Text: text}
	b.next = (b.next + 1) % len(b.lines)
	if b.count < len(b.lines) {
		b.count++
	}
}

// Tail returns the last n lines, oldest first. n <= 0 returns
// everything held.
func (b *LogBuffer) Tail(n int) []LogLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.count {
		n = b.count
	}

	out := make([]LogLine, n)
	// next is one past the newest entry; walk back n slots.
	start := (b.next - n + len(b.lines)) % len(b.lines)
	for i := 0; i < n; i++ {
		out[i] = b.lines[(start+i)%len(b.lines)]
	}
	return out
}

// Since returns lines at or after the given time, oldest first.
func (b *LogBuffer) Since(since time.Time) []LogLine {
	all := b.Tail(0)
	var out []LogLine
	for _, line := range all {
		if !line.Timestamp.Before(since) {
			out = append(out, line)
		}
	}
	return out
}

// Len reports the number of lines held.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// LogStore holds one diagnostic buffer per server. Buffers survive a
// server's connection so crash output stays inspectable.
type LogStore struct {
	mu       sync.Mutex
	buffers  map[string]*LogBuffer
	capacity int
}

// NewLogStore creates an empty store.
func NewLogStore() *LogStore {
	return &LogStore{
		buffers:  make(map[string]*LogBuffer),
		capacity: defaultLogCapacity,
	}
}

// Buffer returns the buffer for a server, creating it if needed.
func (s *LogStore) Buffer(server string) *LogBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.buffers[server]; ok {
		return buf
	}
	buf := NewLogBuffer(s.capacity)
	s.buffers[server] = buf
	return buf
}

// Tail returns the last n diagnostic lines for a server.
func (s *LogStore) Tail(server string, n int) []LogLine {
	s.mu.Lock()
	buf, ok := s.buffers[server]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return buf.Tail(n)
}

// Remove drops the buffer for a server.
func (s *LogStore) Remove(server string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, server)
}

// captureDiagnostics drains a server's stderr into its buffer. Runs
// until the stream closes.
func captureDiagnostics(r io.Reader, buf *LogBuffer) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialScanBuffer), maxFrameSize)
	for scanner.Scan() {
		buf.Append(scanner.Text())
	}
}
