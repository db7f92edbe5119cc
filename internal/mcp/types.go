// Package mcp implements a client runtime for the Model Context
// Protocol. It launches MCP servers as child processes, speaks
// newline-delimited JSON-RPC 2.0 over their stdio, and tracks each
// server's lifecycle, capabilities, and health.
package mcp

import "encoding/json"

// State describes where a server connection is in its lifecycle.
type State string

const (
	// StateStarting means the child process is being spawned.
	StateStarting State = "starting"
	// StateInitializing means the process is up and the protocol
	// handshake is in flight.
	StateInitializing State = "initializing"
	// StateReady means the handshake completed and the server is
	// accepting calls.
	StateReady State = "ready"
	// StateDegraded means the server stopped answering health pings
	// but the process is still alive.
	StateDegraded State = "degraded"
	// StateStopped means the connection is torn down. A stopped
	// connection is never reused; restarting a server creates a new
	// connection.
	StateStopped State = "stopped"
)

// ToolDefinition describes one tool a server advertises.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ResourceDefinition describes one resource a server advertises.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Capabilities is the discovered surface of a running server.
type Capabilities struct {
	Tools     []ToolDefinition     `json:"tools"`
	Resources []ResourceDefinition `json:"resources"`
}

// ContentItem is one element of a tool call result. Only text content
// is interpreted; other types are carried through untouched.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolCallResult is the payload of a tools/call response.
type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ResourceContent is one element of a resources/read response.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult is the payload of a resources/read response.
type ReadResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ServerInfo identifies the remote server from the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Status is a point-in-time snapshot of one server connection.
type Status struct {
	Name       string     `json:"name"`
	State      State      `json:"state"`
	PID        int        `json:"pid,omitempty"`
	Server     ServerInfo `json:"server,omitempty"`
	ToolCount  int        `json:"toolCount"`
	Uptime     string     `json:"uptime,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	PingFailed int        `json:"pingFailed,omitempty"`
}
