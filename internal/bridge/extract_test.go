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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func toolWithSchema(name string, schema string) mcp.ToolDefinition {
	return mcp.ToolDefinition{Name: name, InputSchema: json.RawMessage(schema)}
}

func TestExtractArgsQuotedPath(t *testing.T) {
	tool := toolWithSchema("read_file", `{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`)

	args := ExtractArgs(`read the file "readme.txt"`, tool)
	assert.Equal(t, map[string]interface{}{"path": "readme.txt"}, args)
}

func TestExtractArgsSingleQuotes(t *testing.T) {
	tool := toolWithSchema("read_file", `{
		"properties": {"path": {"type": "string"}}
	}`)

	args := ExtractArgs(`open 'notes.md' please`, tool)
	assert.Equal(t, "notes.md", args["path"])
}

func TestExtractArgsTwoQuotedValues(t *testing.T) {
	tool := toolWithSchema("move_file", `{
		"properties": {
			"source_path": {"type": "string"},
			"target_path": {"type": "string"}
		},
		"required": ["source_path"]
	}`)

	args := ExtractArgs(`move "a.txt" to "b.txt"`, tool)
	// Required property is claimed first, then the remaining one.
	assert.Equal(t, "a.txt", args["source_path"])
	assert.Equal(t, "b.txt", args["target_path"])
}

func TestExtractArgsWriteLikeGetsFullText(t *testing.T) {
	tool := toolWithSchema("write_file", `{
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["path", "content"]
	}`)

	text := `write "todo.txt" with the shopping list`
	args := ExtractArgs(text, tool)
	assert.Equal(t, "todo.txt", args["path"])
	assert.Equal(t, text, args["content"])
}

func TestExtractArgsReadLikeSkipsContent(t *testing.T) {
	tool := toolWithSchema("read_file", `{
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"}
		}
	}`)

	args := ExtractArgs(`read "a.txt"`, tool)
	assert.Equal(t, "a.txt", args["path"])
	_, has := args["content"]
	assert.False(t, has)
}

func TestExtractArgsInteger(t *testing.T) {
	tool := toolWithSchema("tail_file", `{
		"properties": {
			"path": {"type": "string"},
			"lines": {"type": "integer"}
		}
	}`)

	args := ExtractArgs(`show the last 20 lines of "app.log"`, tool)
	assert.Equal(t, "app.log", args["path"])
	assert.Equal(t, 20, args["lines"])
}

func TestExtractArgsNumberFallback(t *testing.T) {
	tool := toolWithSchema("sample_rows", `{
		"properties": {"limit": {"type": "number"}}
	}`)

	args := ExtractArgs("give me 5 rows", tool)
	assert.Equal(t, 5.0, args["limit"])
}

func TestExtractArgsNoSchemaMeansNoArgs(t *testing.T) {
	args := ExtractArgs(`read "a.txt"`, mcp.ToolDefinition{Name: "read_file"})
	assert.Empty(t, args)
}

func TestExtractArgsBadSchemaMeansNoArgs(t *testing.T) {
	tool := toolWithSchema("read_file", `{"properties": 12}`)
	args := ExtractArgs(`read "a.txt"`, tool)
	assert.Empty(t, args)
}

func TestQuotedStrings(t *testing.T) {
	assert.Equal(t,
		[]string{"one", "two"},
		quotedStrings(`first "one" then 'two'`))
	assert.Empty(t, quotedStrings("nothing here"))
}

func TestIsWriteLike(t *testing.T) {
	assert.True(t, isWriteLike("write_file"))
	assert.True(t, isWriteLike("create_issue"))
	assert.True(t, isWriteLike("AppendNote"))
	assert.False(t, isWriteLike("read_file"))
	assert.False(t, isWriteLike("list_tables"))
}
