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
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

// schemaProperty is the slice of JSON Schema the extractor reads.
type schemaProperty struct {
	Type string `json:"type"`
}

type inputSchema struct {
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

var (
	quotedRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	numberRe = regexp.MustCompile(`\b\d+\b`)
)

// Property-name families the extractor understands.
var (
	pathishNames    = []string{"path", "file", "uri", "url", "name", "target", "location"}
	contentishNames = []string{"content", "text", "body", "data", "message", "value"}
	countishNames   = []string{"count", "limit", "max", "n", "lines", "depth"}
	writeishVerbs   = []string{"write", "create", "append", "add", "set", "save", "update", "insert", "post"}
)

// ExtractArgs maps request text onto a tool's input schema using
// plain heuristics: quoted substrings become path-like string
// arguments, the raw text becomes the content argument of write-like
// tools, and the first bare integer becomes a count-like argument.
func ExtractArgs(text string, tool mcp.ToolDefinition) map[string]interface{} {
	args := make(map[string]interface{})

	var schema inputSchema
	if len(tool.InputSchema) > 0 {
		// A schema that does not parse yields no arguments; the tool
		// may still accept an empty call.
		if err := jsonCodec.Unmarshal(tool.InputSchema, &schema); err != nil {
			return args
		}
	}
	if len(schema.Properties) == 0 {
		return args
	}

	quoted := quotedStrings(text)
	for _, value := range quoted {
		if prop, ok := findProperty(schema, "string", pathishNames, args); ok {
			args[prop] = value
		}
	}

	if isWriteLike(tool.Name) {
		if prop, ok := findProperty(schema, "string", contentishNames, args); ok {
			args[prop] = text
		}
	}

	if num := numberRe.FindString(text); num != "" {
		if prop, ok := findProperty(schema, "integer", countishNames, args); ok {
			args[prop] = cast.ToInt(num)
		} else if prop, ok := findProperty(schema, "number", countishNames, args); ok {
			args[prop] = cast.ToFloat64(num)
		}
	}

	return args
}

// quotedStrings returns all single- or double-quoted substrings in
// order of appearance.
func quotedStrings(text string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}

// findProperty locates the first unassigned schema property of the
// given type whose name contains one of the candidate substrings.
// Required properties win over optional ones.
func findProperty(schema inputSchema, propType string, candidates []string, taken map[string]interface{}) (string, bool) {
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	best := ""
	for name, prop := range schema.Properties {
		if prop.Type != propType {
			continue
		}
		if _, assigned := taken[name]; assigned {
			continue
		}
		lower := strings.ToLower(name)
		for _, candidate := range candidates {
			if strings.Contains(lower, candidate) {
				if required[name] {
					return name, true
				}
				if best == "" || name < best {
					best = name
				}
				break
			}
		}
	}
	return best, best != ""
}

// isWriteLike reports whether the tool name suggests it consumes
// free-form content.
func isWriteLike(name string) bool {
	lower := strings.ToLower(name)
	for _, verb := range writeishVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
