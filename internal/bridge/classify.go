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

// Package bridge routes free-form requests to the tools of running
// MCP servers. It classifies the request, selects matching
// operations, extracts arguments, fans the invocations out, and
// composes one response.
package bridge

import (
	"regexp"
	"strings"
)

// Tag is a capability domain a request can touch.
type Tag string

const (
	TagFilesystem     Tag = "filesystem"
	TagVersionControl Tag = "version-control"
	TagData           Tag = "data"
	TagWeb            Tag = "web"
	TagMemory         Tag = "memory"
	TagCommunication  Tag = "communication"
)

// Classifier maps request text to capability tags.
type Classifier interface {
	Classify(text string) []Tag
}

// keywordTable drives the default classifier. Matching is on whole
// words, lowercased.
var keywordTable = map[Tag][]string{
	TagFilesystem: {
		"file", "files", "directory", "directories", "folder", "folders",
		"read", "write", "path", "save", "delete", "rename", "copy", "move",
	},
	TagVersionControl: {
		"git", "commit", "commits", "branch", "branches", "merge", "diff",
		"repository", "repo", "log", "tag", "checkout", "stash",
	},
	TagData: {
		"database", "table", "tables", "query", "sql", "row", "rows",
		"record", "records", "schema", "select", "insert",
	},
	TagWeb: {
		"http", "https", "url", "website", "page", "fetch", "download",
		"scrape", "link", "web",
	},
	TagMemory: {
		"remember", "recall", "memory", "note", "notes", "knowledge",
		"forget", "stored",
	},
	TagCommunication: {
		"email", "message", "send", "notify", "slack", "channel", "post",
	},
}

// KeywordClassifier is the default, table-driven Classifier.
type KeywordClassifier struct{}

// Classify returns the tags whose keywords appear in the text. Order
// follows first appearance in the text so the dominant topic leads.
func (KeywordClassifier) Classify(text string) []Tag {
	words := splitWords(text)
	positions := make(map[Tag]int)

	for i, word := range words {
		for tag, keywords := range keywordTable {
			if _, seen := positions[tag]; seen {
				continue
			}
			for _, kw := range keywords {
				if word == kw {
					positions[tag] = i
					break
				}
			}
		}
	}

	out := make([]Tag, 0, len(positions))
	for tag := range positions {
		out = append(out, tag)
	}
	// earliest keyword first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && positions[out[j]] < positions[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

var wordSplit = regexp.MustCompile(`[a-z0-9]+`)

// splitWords lowercases text and splits it into alphanumeric runs.
func splitWords(text string) []string {
	return wordSplit.FindAllString(strings.ToLower(text), -1)
}
