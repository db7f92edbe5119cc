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
)

// ErrorCode represents a category of MCP runtime error.
type ErrorCode string

const (
	// ErrorCodeNotFound indicates a server was not found.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrorCodeAlreadyRunning indicates a server is already running.
	ErrorCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	// ErrorCodeNotConnected indicates the server has no live connection.
	ErrorCodeNotConnected ErrorCode = "NOT_CONNECTED"
	// ErrorCodeSpawnFailed indicates the child process failed to start.
	ErrorCodeSpawnFailed ErrorCode = "SPAWN_FAILED"
	// ErrorCodeConnectionLost indicates the process exited with calls in flight.
	ErrorCodeConnectionLost ErrorCode = "CONNECTION_LOST"
	// ErrorCodeTimeout indicates a call deadline elapsed with no reply.
	ErrorCodeTimeout ErrorCode = "TIMEOUT"
	// ErrorCodeRemote indicates the server returned a JSON-RPC error.
	ErrorCodeRemote ErrorCode = "REMOTE"
	// ErrorCodeParse indicates a malformed frame on the wire.
	ErrorCodeParse ErrorCode = "PARSE"
	// ErrorCodeConfig indicates a configuration error.
	ErrorCodeConfig ErrorCode = "CONFIG"
	// ErrorCodeValidation indicates invalid input.
	ErrorCodeValidation ErrorCode = "VALIDATION"
	// ErrorCodeInternal indicates an internal error.
	ErrorCodeInternal ErrorCode = "INTERNAL"
)

// Error is the runtime's error type. It carries a category code and
// actionable suggestions for resolution.
type Error struct {
	// Code is the error category.
	Code ErrorCode
	// Message is the primary error message.
	Message string
	// Detail provides additional context.
	Detail string
	// Suggestions are actionable steps to resolve the error.
	Suggestions []string
	// Cause is the underlying error, if any.
	Cause error
	// RemoteCode is the JSON-RPC error code for ErrorCodeRemote errors.
	RemoteCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if e.Detail != "" {
		sb.WriteString("  → ")
		sb.WriteString(e.Detail)
		sb.WriteString("\n")
	}

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Suggestions:\n")
		for _, s := range e.Suggestions {
			sb.WriteString("  - ")
			sb.WriteString(s)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns a one-line message without suggestions.
func (e *Error) UserMessage() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// NewError creates a new Error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithSuggestions adds suggestions to the error.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = suggestions
	return e
}

// WithCause adds an underlying cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ErrServerNotFound creates an error for when a server is not found.
func ErrServerNotFound(name string) *Error {
	return NewError(ErrorCodeNotFound, fmt.Sprintf("MCP server '%s' not found", name)).
		WithSuggestions(
			"Check the server name: asmbli list",
			fmt.Sprintf("Enable the server: asmbli enable %s", name),
		)
}

// ErrServerAlreadyRunning creates an error for when a server is already running.
func ErrServerAlreadyRunning(name string) *Error {
	return NewError(ErrorCodeAlreadyRunning, fmt.Sprintf("MCP server '%s' is already running", name)).
		WithSuggestions(
			fmt.Sprintf("Check status: asmbli status %s", name),
			fmt.Sprintf("Disable first if a restart is needed: asmbli disable %s", name),
		)
}

// ErrNotConnected creates an error for calls against a dead connection.
func ErrNotConnected(name string) *Error {
	return NewError(ErrorCodeNotConnected, fmt.Sprintf("MCP server '%s' is not connected", name)).
		WithSuggestions(
			fmt.Sprintf("Enable the server: asmbli enable %s", name),
			fmt.Sprintf("Check status: asmbli status %s", name),
		)
}

// ErrSpawnFailed creates an error for when the child process fails to start.
func ErrSpawnFailed(name string, cause error) *Error {
	return NewError(ErrorCodeSpawnFailed, fmt.Sprintf("Failed to start MCP server '%s'", name)).
		WithDetail(cause.Error()).
		WithCause(cause).
		WithSuggestions(
			"Verify the command is installed and in your PATH",
			"Ensure required environment variables are set",
			fmt.Sprintf("Check server logs: asmbli logs %s", name),
		)
}

// ErrConnectionLost creates an error for calls in flight when the
// server process exits.
func ErrConnectionLost(name string, cause error) *Error {
	e := NewError(ErrorCodeConnectionLost, fmt.Sprintf("Connection to MCP server '%s' lost", name)).
		WithSuggestions(
			fmt.Sprintf("Check server logs for crash details: asmbli logs %s", name),
			fmt.Sprintf("Re-enable the server: asmbli enable %s", name),
		)
	if cause != nil {
		e = e.WithDetail(cause.Error()).WithCause(cause)
	}
	return e
}

// ErrCallTimeout creates an error for a call that saw no reply within
// its deadline.
func ErrCallTimeout(name, method string, seconds float64) *Error {
	return NewError(ErrorCodeTimeout, fmt.Sprintf("Call '%s' to MCP server '%s' timed out", method, name)).
		WithDetail(fmt.Sprintf("No reply after %.0fs", seconds)).
		WithSuggestions(
			fmt.Sprintf("Check if the server is responding: asmbli ping %s", name),
			"Try increasing the call timeout",
			fmt.Sprintf("Check server logs: asmbli logs %s", name),
		)
}

// ErrRemote creates an error from a JSON-RPC error object returned by
// the server.
func ErrRemote(name, method string, code int, message string) *Error {
	e := NewError(ErrorCodeRemote, fmt.Sprintf("MCP server '%s' rejected '%s'", name, method)).
		WithDetail(fmt.Sprintf("JSON-RPC error %d: %s", code, message))
	e.RemoteCode = code
	return e
}

// IsMethodNotFound reports whether err is a remote method-not-found
// rejection.
func IsMethodNotFound(err error) bool {
	e := GetError(err)
	return e != nil && e.Code == ErrorCodeRemote && e.RemoteCode == codeMethodNotFound
}

// ErrParse creates an error for a malformed wire frame.
func ErrParse(name string, cause error) *Error {
	return NewError(ErrorCodeParse, fmt.Sprintf("Malformed message from MCP server '%s'", name)).
		WithDetail(cause.Error()).
		WithCause(cause).
		WithSuggestions(
			"Verify the server speaks newline-delimited JSON-RPC on stdout",
			"Check the server is not writing diagnostics to stdout",
		)
}

// ErrInvalidServerName creates an error for an invalid server name.
func ErrInvalidServerName(name string) *Error {
	return NewError(ErrorCodeValidation, fmt.Sprintf("Invalid server name '%s'", name)).
		WithDetail("Names must start with a letter, contain only letters/numbers/hyphens/underscores, and be at most 64 characters").
		WithSuggestions(
			"Use only letters, numbers, hyphens (-), and underscores (_)",
			"Start the name with a letter",
		)
}

// ErrInvalidConfig creates an error for invalid configuration.
func ErrInvalidConfig(detail string) *Error {
	return NewError(ErrorCodeConfig, "Invalid MCP server configuration").
		WithDetail(detail).
		WithSuggestions(
			"Check the configuration syntax in servers.yaml",
			"Ensure all required fields are provided",
		)
}

// WrapError wraps a standard error in an Error if it isn't one already.
func WrapError(err error, code ErrorCode, message string) *Error {
	if mcpErr, ok := err.(*Error); ok {
		return mcpErr
	}
	return NewError(code, message).WithDetail(err.Error()).WithCause(err)
}

// GetError extracts an Error from an error chain.
func GetError(err error) *Error {
	if mcpErr, ok := err.(*Error); ok {
		return mcpErr
	}
	return nil
}
