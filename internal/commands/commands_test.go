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

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand("test")

	want := []string{"list", "enable", "disable", "status", "ping", "invoke", "route", "logs", "serve"}
	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing subcommand %s", name)
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestEnableCommandFlags(t *testing.T) {
	cmd := newEnableCommand()
	assert.NotNil(t, cmd.Flags().Lookup("env"))
	assert.NotNil(t, cmd.Flags().Lookup("env-file"))
	assert.NotNil(t, cmd.Flags().Lookup("timeout"))
}

func TestEnvFlagValidatesOnParse(t *testing.T) {
	var f envFlag
	require.NoError(t, f.Set("API_KEY=secret"))
	require.NoError(t, f.Set("REGION=eu-west-1"))
	require.Error(t, f.Set("not-an-assignment"))
	assert.Equal(t, []string{"API_KEY=secret", "REGION=eu-west-1"}, f.entries)
	assert.Equal(t, "KEY=VALUE", f.Type())
}

func TestCollectCredentialsFromFlags(t *testing.T) {
	creds, err := collectCredentials("", []string{"API_KEY=secret", "REGION=eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"API_KEY": "secret",
		"REGION":  "eu-west-1",
	}, creds)
}

func TestCollectCredentialsRejectsMalformedFlag(t *testing.T) {
	_, err := collectCredentials("", []string{"NOEQUALS"})
	require.Error(t, err)
	mcpErr := mcp.GetError(err)
	require.NotNil(t, mcpErr)
	assert.Equal(t, mcp.ErrorCodeConfig, mcpErr.Code)
}

func TestCollectCredentialsFlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TOKEN=from-file\nEXTRA=kept\n"), 0o600))

	creds, err := collectCredentials(envFile, []string{"TOKEN=from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", creds["TOKEN"])
	assert.Equal(t, "kept", creds["EXTRA"])
}

func TestCollectCredentialsMissingFile(t *testing.T) {
	_, err := collectCredentials("/nonexistent/creds.env", nil)
	require.Error(t, err)
	mcpErr := mcp.GetError(err)
	require.NotNil(t, mcpErr)
	assert.Equal(t, mcp.ErrorCodeConfig, mcpErr.Code)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	assert.Equal(t, "toolon...", truncate("toolongbyfar", 9))
}
