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
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// codec is the wire serializer. jsoniter keeps stdlib-compatible
// semantics while avoiding reflection cost on the hot read loop.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// protocolVersion is the MCP revision this client negotiates.
const protocolVersion = "2024-11-05"

// JSON-RPC methods used by the runtime.
const (
	methodInitialize    = "initialize"
	methodInitialized   = "notifications/initialized"
	methodPing          = "ping"
	methodListTools     = "tools/list"
	methodCallTool      = "tools/call"
	methodListResources = "resources/list"
	methodReadResource  = "resources/read"
	methodShutdown      = "shutdown"
)

// Notifications a server may emit that the runtime accepts and logs
// without treating them as protocol violations.
var knownNotifications = map[string]bool{
	"notifications/progress":              true,
	"notifications/message":               true,
	"notifications/cancelled":             true,
	"notifications/resources/updated":     true,
	"notifications/resources/list_changed": true,
	"notifications/tools/list_changed":    true,
	"notifications/prompts/list_changed":  true,
}

// Standard JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// rpcRequest is an outbound JSON-RPC request or notification. A
// notification carries a nil ID.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      *int64      `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcMessage is any inbound frame. It is a response when ID is set
// and Method is empty, a notification when Method is set and ID is
// nil, and a server-to-client request when both are set.
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the JSON-RPC error object.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// initializeParams is the client half of the handshake.
type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      clientInfo             `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResult is the server half of the handshake.
type initializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo      `json:"serverInfo"`
}

// toolCallParams is the payload of a tools/call request.
type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// readResourceParams is the payload of a resources/read request.
type readResourceParams struct {
	URI string `json:"uri"`
}

type listToolsResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type listResourcesResult struct {
	Resources []ResourceDefinition `json:"resources"`
}

// encodeFrame serializes a request as one newline-terminated line.
func encodeFrame(req rpcRequest) ([]byte, error) {
	data, err := codec.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeFrame parses one inbound line into an rpcMessage.
func decodeFrame(line []byte) (rpcMessage, error) {
	var msg rpcMessage
	if err := codec.Unmarshal(line, &msg); err != nil {
		return rpcMessage{}, err
	}
	return msg, nil
}
