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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferTail(t *testing.T) {
	buf := NewLogBuffer(5)
	for i := 1; i <= 3; i++ {
		buf.Append(fmt.Sprintf("line %d", i))
	}

	tail := buf.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "line 2", tail[0].Text)
	assert.Equal(t, "line 3", tail[1].Text)

	all := buf.Tail(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "line 1", all[0].Text)
}

func TestLogBufferEviction(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Append(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, 3, buf.Len())
	all := buf.Tail(0)
	require.Len(t, all, 3)
	assert.Equal(t, "line 3", all[0].Text)
	assert.Equal(t, "line 5", all[2].Text)
}

func TestLogBufferSince(t *testing.T) {
	buf := NewLogBuffer(10)
	buf.Append("old")
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	buf.Append("new")

	since := buf.Since(cutoff)
	require.Len(t, since, 1)
	assert.Equal(t, "new", since[0].Text)
}

func TestLogStore(t *testing.T) {
	store := NewLogStore()

	store.Buffer("git").Append("cloning")
	store.Buffer("git").Append("done")

	tail := store.Tail("git", 10)
	require.Len(t, tail, 2)

	assert.Nil(t, store.Tail("unknown", 10))

	store.Remove("git")
	assert.Nil(t, store.Tail("git", 10))
}

func TestCaptureDiagnostics(t *testing.T) {
	buf := NewLogBuffer(10)
	r := strings.NewReader("warning: deprecated flag\npanic: oh no\n")

	captureDiagnostics(r, buf)

	lines := buf.Tail(0)
	require.Len(t, lines, 2)
	assert.Equal(t, "warning: deprecated flag", lines[0].Text)
	assert.Equal(t, "panic: oh no", lines[1].Text)
}
