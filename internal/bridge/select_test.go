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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func TestSelectToolsCapsCount(t *testing.T) {
	var tools []mcp.ToolDefinition
	for i := 0; i < 10; i++ {
		tools = append(tools, mcp.ToolDefinition{
			Name:        fmt.Sprintf("tool_%d", i),
			Description: "Works with files",
		})
	}

	got := selectTools("fs", tools, []Tag{TagFilesystem}, []string{"list", "files"})
	assert.Len(t, got, maxOpsPerServer)
}

func TestSelectToolsOrdersByScore(t *testing.T) {
	tools := []mcp.ToolDefinition{
		{Name: "zzz_qqq", Description: "does nothing of note"},
		{Name: "read_file", Description: "Read the contents of a file"},
		{Name: "stat", Description: "File metadata"},
	}

	got := selectTools("fs", tools, []Tag{TagFilesystem}, []string{"read", "the", "file"})
	require.NotEmpty(t, got)

	// read_file wins: tag hit plus word overlap plus fuzzy name match.
	assert.Equal(t, "read_file", got[0].Tool.Name)
	for _, c := range got {
		assert.NotEqual(t, "zzz_qqq", c.Tool.Name)
		assert.Greater(t, c.Score, 0.0)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestSelectToolsNoMatchesEmpty(t *testing.T) {
	tools := []mcp.ToolDefinition{
		{Name: "zzz", Description: "qqq"},
	}
	got := selectTools("fs", tools, nil, []string{"summon", "dragon"})
	assert.Empty(t, got)
}

func TestSelectResourcesCapsCount(t *testing.T) {
	var resources []mcp.ResourceDefinition
	for i := 0; i < 5; i++ {
		resources = append(resources, mcp.ResourceDefinition{
			URI:  fmt.Sprintf("file:///doc/%d", i),
			Name: "project file",
		})
	}

	got := selectResources("fs", resources, []Tag{TagFilesystem}, []string{"file"})
	assert.Len(t, got, maxResourcesPerServer)
}

func TestSelectResourcesPrefersWordOverlap(t *testing.T) {
	resources := []mcp.ResourceDefinition{
		{URI: "file:///project/license", Name: "license file"},
		{URI: "file:///project/readme", Name: "readme file"},
	}

	got := selectResources("fs", resources, []Tag{TagFilesystem}, []string{"show", "the", "readme", "file"})
	require.NotEmpty(t, got)
	assert.Equal(t, "file:///project/readme", got[0].Resource.URI)
}

func TestScoreTextCountsEachTagOnce(t *testing.T) {
	// Two filesystem keywords in the text still score one tag hit.
	one := scoreText("file", []Tag{TagFilesystem}, nil)
	two := scoreText("file directory", []Tag{TagFilesystem}, nil)
	assert.Equal(t, one, two)
}

func TestFuzzyNameScore(t *testing.T) {
	assert.Greater(t, fuzzyNameScore("read_file", []string{"read"}), 0.0)
	assert.Greater(t, fuzzyNameScore("read_file", []string{"file"}), 0.0)
	assert.Zero(t, fuzzyNameScore("read_file", []string{"zzz"}))
	// short words are ignored
	assert.Zero(t, fuzzyNameScore("read_file", []string{"re"}))
}
