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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateServerName(t *testing.T) {
	valid := []string{"filesystem", "my-server", "server_1", "mcpServer", "a"}
	for _, name := range valid {
		assert.NoError(t, ValidateServerName(name), name)
	}

	invalid := []string{"", "9lives", "-leading", "has space", "has.dot", strings.Repeat("a", 65)}
	for _, name := range invalid {
		assert.Error(t, ValidateServerName(name), name)
	}
}

func TestValidateArg(t *testing.T) {
	assert.NoError(t, ValidateArg("--root=/tmp/data"))
	assert.NoError(t, ValidateArg("@modelcontextprotocol/server-filesystem"))

	unsafe := []string{"a; rm -rf /", "a && b", "a | b", "`whoami`", "$(id)"}
	for _, arg := range unsafe {
		assert.Error(t, ValidateArg(arg), arg)
	}
}

func TestValidateEnv(t *testing.T) {
	assert.NoError(t, ValidateEnv("API_KEY=abc123"))
	assert.NoError(t, ValidateEnv("PATH_PREFIX=${HOME}/bin"))

	assert.Error(t, ValidateEnv("NOEQUALS"))
	assert.Error(t, ValidateEnv("=value"))
	assert.Error(t, ValidateEnv("9KEY=value"))
	assert.Error(t, ValidateEnv("KEY=a;b"))
}

func TestIsSensitiveEnvKey(t *testing.T) {
	sensitive := []string{"API_KEY", "GITHUB_TOKEN", "db_password", "AWS_SECRET_ACCESS_KEY", "OAUTH_CREDENTIAL"}
	for _, key := range sensitive {
		assert.True(t, IsSensitiveEnvKey(key), key)
	}

	assert.False(t, IsSensitiveEnvKey("LOG_LEVEL"))
	assert.False(t, IsSensitiveEnvKey("HOME"))
}

func TestRedactEnv(t *testing.T) {
	out := RedactEnv([]string{"API_KEY=supersecret", "LOG_LEVEL=debug"})
	assert.Equal(t, "API_KEY=***REDACTED***", out[0])
	assert.Equal(t, "LOG_LEVEL=debug", out[1])
}
