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
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

const (
	// maxOpsPerServer caps how many tool invocations one request may
	// trigger on a single server.
	maxOpsPerServer = 3

	// maxResourcesPerServer caps resource reads per server.
	maxResourcesPerServer = 2

	tagMatchWeight  = 1.0
	wordMatchWeight = 0.25
	fuzzyNameWeight = 0.5
)

// toolCandidate is one scored tool on one server.
type toolCandidate struct {
	Server string
	Tool   mcp.ToolDefinition
	Score  float64
}

// resourceCandidate is one scored resource on one server.
type resourceCandidate struct {
	Server   string
	Resource mcp.ResourceDefinition
	Score    float64
}

// selectTools scores a server's tools against the request and keeps
// the best few. Ties and near-ties order by score only; order among
// equal scores is not guaranteed.
func selectTools(server string, tools []mcp.ToolDefinition, tags []Tag, words []string) []toolCandidate {
	var out []toolCandidate
	for _, tool := range tools {
		score := scoreText(tool.Name+" "+tool.Description, tags, words)
		score += fuzzyNameScore(tool.Name, words)
		if score > 0 {
			out = append(out, toolCandidate{Server: server, Tool: tool, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxOpsPerServer {
		out = out[:maxOpsPerServer]
	}
	return out
}

// selectResources scores a server's resources against the request.
func selectResources(server string, resources []mcp.ResourceDefinition, tags []Tag, words []string) []resourceCandidate {
	var out []resourceCandidate
	for _, res := range resources {
		score := scoreText(res.URI+" "+res.Name+" "+res.Description, tags, words)
		if score > 0 {
			out = append(out, resourceCandidate{Server: server, Resource: res, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxResourcesPerServer {
		out = out[:maxResourcesPerServer]
	}
	return out
}

// scoreText combines tag-keyword hits and raw word overlap. One hit
// per tag counts; repeated keywords do not stack.
func scoreText(text string, tags []Tag, words []string) float64 {
	textWords := make(map[string]bool)
	for _, w := range splitWords(text) {
		textWords[w] = true
	}

	var score float64
	for _, tag := range tags {
		for _, kw := range keywordTable[tag] {
			if textWords[kw] {
				score += tagMatchWeight
				break
			}
		}
	}

	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if textWords[w] {
			score += wordMatchWeight
		}
	}
	return score
}

// fuzzyNameScore rewards request words that fuzzily match the tool
// name, catching read_file against "read that file".
func fuzzyNameScore(name string, words []string) float64 {
	target := []string{strings.ToLower(name)}
	var score float64
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if matches := fuzzy.Find(w, target); len(matches) > 0 {
			score += fuzzyNameWeight
		}
	}
	return score
}
