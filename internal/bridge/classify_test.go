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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := KeywordClassifier{}

	tests := []struct {
		name string
		text string
		want []Tag
	}{
		{
			name: "filesystem",
			text: "read the file in that directory",
			want: []Tag{TagFilesystem},
		},
		{
			name: "version control",
			text: "show me the latest commits on the branch",
			want: []Tag{TagVersionControl},
		},
		{
			name: "data",
			text: "run a query against the orders table",
			want: []Tag{TagData},
		},
		{
			name: "web",
			text: "fetch https://example.com and summarise it",
			want: []Tag{TagWeb},
		},
		{
			name: "memory",
			text: "remember that the deploy happens on fridays",
			want: []Tag{TagMemory},
		},
		{
			name: "order follows first appearance",
			text: "commit the file changes",
			want: []Tag{TagVersionControl, TagFilesystem},
		},
		{
			name: "reversed order",
			text: "write the file then commit it",
			want: []Tag{TagFilesystem, TagVersionControl},
		},
		{
			name: "no match",
			text: "please summon a dragon",
			want: []Tag{},
		},
		{
			name: "whole words only",
			text: "the profile was gitignored",
			want: []Tag{},
		},
		{
			name: "case insensitive",
			text: "READ THE FILE",
			want: []Tag{TagFilesystem},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t,
		[]string{"read", "file", "txt", "v2"},
		splitWords(`Read "file.txt" (v2)!`))
	assert.Empty(t, splitWords("???"))
}
