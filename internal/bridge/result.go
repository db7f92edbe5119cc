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

package bridge

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// previewLimit caps how much of any one result appears in the
// composed response.
const previewLimit = 500

// InvocationResult captures one fan-out branch, tool call or
// resource read, success or failure.
type InvocationResult struct {
	Server string `json:"server"`
	Tool   string `json:"tool,omitempty"`
	URI    string `json:"uri,omitempty"`

	Args map[string]interface{} `json:"args,omitempty"`

	Result *mcp.ToolCallResult     `json:"result,omitempty"`
	Read   *mcp.ReadResourceResult `json:"read,omitempty"`
	Err    error                   `json:"-"`

	// Error mirrors Err for serialization.
	Error string `json:"error,omitempty"`
}

// Failed reports whether this branch produced an error, either a
// transport failure or a tool-level isError result.
func (r InvocationResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	return r.Result != nil && r.Result.IsError
}

// Preview renders the branch's payload, truncated for composition.
func (r InvocationResult) Preview() string {
	switch {
	case r.Err != nil:
		if e := mcp.GetError(r.Err); e != nil {
			return e.UserMessage()
		}
		return r.Err.Error()
	case r.Result != nil:
		var parts []string
		for _, item := range r.Result.Content {
			if item.Type == "text" && item.Text != "" {
				parts = append(parts, item.Text)
			}
		}
		return truncate(strings.Join(parts, "\n"), previewLimit)
	case r.Read != nil:
		var parts []string
		for _, content := range r.Read.Contents {
			if content.Text != "" {
				parts = append(parts, content.Text)
			}
		}
		return truncate(strings.Join(parts, "\n"), previewLimit)
	}
	return ""
}

// Outcome is the composed answer to one routed request.
type Outcome struct {
	// RequestID uniquely identifies this routing pass.
	RequestID string `json:"requestId"`

	// Response is the composed human-readable answer.
	Response string `json:"response"`

	// Servers lists the servers that contributed, sorted.
	Servers []string `json:"servers"`

	// Tags are the capability domains the request classified into.
	Tags []Tag `json:"tags"`

	// Capabilities snapshots what each consulted server offered at
	// routing time, keyed by server name.
	Capabilities map[string]mcp.Capabilities `json:"capabilities,omitempty"`

	// Results holds every fan-out branch, successes and failures.
	Results []InvocationResult `json:"results"`
}

// truncate cuts s to at most limit runes, marking the cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
