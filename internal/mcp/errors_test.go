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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := NewError(ErrorCodeTimeout, "call timed out").
		WithDetail("no reply after 30s").
		WithSuggestions("check the server", "increase the timeout")

	out := err.Error()
	assert.Contains(t, out, "Error: call timed out")
	assert.Contains(t, out, "no reply after 30s")
	assert.Contains(t, out, "- check the server")
	assert.Contains(t, out, "- increase the timeout")

	assert.Equal(t, "call timed out: no reply after 30s", err.UserMessage())
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("pipe closed")
	err := ErrConnectionLost("git", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrorCodeConnectionLost, err.Code)
}

func TestWrapErrorPassesThrough(t *testing.T) {
	original := ErrServerNotFound("sqlite")
	wrapped := WrapError(original, ErrorCodeInternal, "something else")

	assert.Same(t, original, wrapped)
}

func TestWrapErrorWrapsPlain(t *testing.T) {
	plain := fmt.Errorf("boom")
	wrapped := WrapError(plain, ErrorCodeInternal, "operation failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorCodeInternal, wrapped.Code)
	assert.Equal(t, "boom", wrapped.Detail)
	assert.True(t, errors.Is(wrapped, plain))
}

func TestIsMethodNotFound(t *testing.T) {
	assert.True(t, IsMethodNotFound(ErrRemote("s", "ping", codeMethodNotFound, "nope")))
	assert.False(t, IsMethodNotFound(ErrRemote("s", "ping", codeInternalError, "boom")))
	assert.False(t, IsMethodNotFound(fmt.Errorf("plain")))
}

func TestGetError(t *testing.T) {
	assert.Nil(t, GetError(fmt.Errorf("plain")))
	assert.NotNil(t, GetError(ErrServerNotFound("x")))
	assert.Nil(t, GetError(nil))
}
