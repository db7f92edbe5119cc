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

// Package catalog holds the descriptors of known MCP servers and the
// gateway through which callers enable, disable, and invoke them.
package catalog

// CredentialReq names one environment variable a server needs.
type CredentialReq struct {
	// Name is the environment variable key, e.g. GITHUB_TOKEN.
	Name string `yaml:"name" json:"name"`
	// Required marks credentials that must be present before the
	// server may start.
	Required bool `yaml:"required" json:"required"`
}

// ServerSpec describes one server the catalog knows how to launch.
// Specs are immutable once loaded; runtime state lives elsewhere.
type ServerSpec struct {
	// ID is the catalog key and the manager-facing server name.
	ID string `yaml:"-" json:"id"`

	// DisplayName is shown in listings.
	DisplayName string `yaml:"display_name,omitempty" json:"displayName,omitempty"`

	// Category groups servers by capability domain, e.g. filesystem,
	// version-control, data, web, memory.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// Description says what the server provides.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Command and Args are the launch invocation.
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`

	// Workdir is the working directory the process starts in. Empty
	// means inherit the parent's.
	Workdir string `yaml:"workdir,omitempty" json:"workdir,omitempty"`

	// RequiredEnv lists credentials the server consumes.
	RequiredEnv []CredentialReq `yaml:"required_env,omitempty" json:"requiredEnv,omitempty"`

	// Platforms restricts the spec to certain GOOS values. Empty
	// means any platform.
	Platforms []string `yaml:"platforms,omitempty" json:"platforms,omitempty"`

	// Defaults are non-secret environment defaults merged under the
	// caller-supplied credentials.
	Defaults map[string]string `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// SupportsPlatform reports whether the spec can run on the given GOOS.
func (s ServerSpec) SupportsPlatform(goos string) bool {
	if len(s.Platforms) == 0 {
		return true
	}
	for _, p := range s.Platforms {
		if p == goos {
			return true
		}
	}
	return false
}

// MissingCredentials returns the names of required credentials absent
// from the given set.
func (s ServerSpec) MissingCredentials(creds map[string]string) []string {
	var missing []string
	for _, req := range s.RequiredEnv {
		if !req.Required {
			continue
		}
		if v, ok := creds[req.Name]; !ok || v == "" {
			missing = append(missing, req.Name)
		}
	}
	return missing
}

// builtinSpecs are the compiled-in descriptors for the reference MCP
// servers. A servers.yaml entry under the same id replaces the
// builtin wholesale.
func builtinSpecs() map[string]ServerSpec {
	return map[string]ServerSpec{
		"filesystem": {
			ID:          "filesystem",
			DisplayName: "Filesystem",
			Category:    "filesystem",
			Description: "Read, write, and search files under a root directory",
			Command:     "npx",
			Args:        []string{"-y", "@modelcontextprotocol/server-filesystem", "."},
		},
		"git": {
			ID:          "git",
			DisplayName: "Git",
			Category:    "version-control",
			Description: "Inspect and manipulate git repositories",
			Command:     "uvx",
			Args:        []string{"mcp-server-git"},
		},
		"sqlite": {
			ID:          "sqlite",
			DisplayName: "SQLite",
			Category:    "data",
			Description: "Query and update SQLite databases",
			Command:     "uvx",
			Args:        []string{"mcp-server-sqlite"},
		},
		"fetch": {
			ID:          "fetch",
			DisplayName: "Fetch",
			Category:    "web",
			Description: "Fetch web pages and convert them for reading",
			Command:     "uvx",
			Args:        []string{"mcp-server-fetch"},
		},
		"memory": {
			ID:          "memory",
			DisplayName: "Memory",
			Category:    "memory",
			Description: "Persistent knowledge-graph style notes",
			Command:     "npx",
			Args:        []string{"-y", "@modelcontextprotocol/server-memory"},
		},
	}
}
