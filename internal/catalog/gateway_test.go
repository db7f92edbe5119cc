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

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp/mcptest"
)

const gatewayTestCatalog = `
servers:
  github:
    display_name: GitHub
    category: version-control
    command: npx
    args: ["-y", "@modelcontextprotocol/server-github"]
    required_env:
      - name: GITHUB_TOKEN
        required: true
    defaults:
      GITHUB_API_URL: https://api.github.com
  nowhere:
    command: npx
    platforms: [plan9]
  scratch:
    display_name: Scratch Files
    category: filesystem
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem"]
    workdir: /var/data/scratch
`

func testGateway(t *testing.T) (*Gateway, *mcptest.MockRuntime) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gatewayTestCatalog), 0600))

	cat, err := LoadFrom(path, nil)
	require.NoError(t, err)

	rt := mcptest.NewMockRuntime()
	return NewGateway(cat, rt, nil), rt
}

func TestEnableStartsServer(t *testing.T) {
	g, rt := testGateway(t)
	ctx := context.Background()

	err := g.Enable(ctx, "filesystem", nil)
	require.NoError(t, err)

	assert.True(t, g.Enabled("filesystem"))
	assert.True(t, rt.IsRunning("filesystem"))
	require.Len(t, rt.Started, 1)
	assert.Equal(t, "npx", rt.Started[0].Command)
}

func TestEnablePassesWorkdir(t *testing.T) {
	g, rt := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Enable(ctx, "scratch", nil))
	require.Len(t, rt.Started, 1)
	assert.Equal(t, "/var/data/scratch", rt.Started[0].Dir)

	// A spec without a workdir inherits the parent's directory.
	require.NoError(t, g.Enable(ctx, "github", map[string]string{"GITHUB_TOKEN": "tok"}))
	require.Len(t, rt.Started, 2)
	assert.Empty(t, rt.Started[1].Dir)
}

func TestEnableUnknownServer(t *testing.T) {
	g, rt := testGateway(t)

	err := g.Enable(context.Background(), "no-such-server", nil)
	require.Error(t, err)
	assert.Equal(t, mcp.ErrorCodeNotFound, mcp.GetError(err).Code)
	assert.Empty(t, rt.Started)
}

func TestEnableMissingCredentialDoesNotStart(t *testing.T) {
	g, rt := testGateway(t)

	err := g.Enable(context.Background(), "github", nil)
	require.Error(t, err)
	mcpErr := mcp.GetError(err)
	require.NotNil(t, mcpErr)
	assert.Equal(t, mcp.ErrorCodeConfig, mcpErr.Code)
	assert.Contains(t, mcpErr.Detail, "GITHUB_TOKEN")

	// No process was spawned and the server reads as disabled.
	assert.Empty(t, rt.Started)
	assert.False(t, g.Enabled("github"))
	assert.False(t, g.Status()["github"])
}

func TestEnableMergesDefaultsUnderCredentials(t *testing.T) {
	g, rt := testGateway(t)

	err := g.Enable(context.Background(), "github", map[string]string{
		"GITHUB_TOKEN": "tok-123",
	})
	require.NoError(t, err)

	require.Len(t, rt.Started, 1)
	assert.Contains(t, rt.Started[0].Env, "GITHUB_TOKEN=tok-123")
	assert.Contains(t, rt.Started[0].Env, "GITHUB_API_URL=https://api.github.com")
}

func TestEnableCredentialOverridesDefault(t *testing.T) {
	g, rt := testGateway(t)

	err := g.Enable(context.Background(), "github", map[string]string{
		"GITHUB_TOKEN":   "tok-123",
		"GITHUB_API_URL": "https://ghe.internal/api",
	})
	require.NoError(t, err)

	require.Len(t, rt.Started, 1)
	assert.Contains(t, rt.Started[0].Env, "GITHUB_API_URL=https://ghe.internal/api")
	assert.NotContains(t, rt.Started[0].Env, "GITHUB_API_URL=https://api.github.com")
}

func TestEnableUnsupportedPlatform(t *testing.T) {
	g, rt := testGateway(t)

	err := g.Enable(context.Background(), "nowhere", nil)
	require.Error(t, err)
	assert.Equal(t, mcp.ErrorCodeConfig, mcp.GetError(err).Code)
	assert.Empty(t, rt.Started)
}

func TestDisableAlwaysClearsEnabled(t *testing.T) {
	g, rt := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Enable(ctx, "filesystem", nil))
	require.True(t, g.Enabled("filesystem"))

	// The process already died; the runtime's stop will fail. The
	// caller still sees a clean disable and a cleared flag.
	require.NoError(t, rt.Stop(ctx, "filesystem"))
	require.NoError(t, g.Disable(ctx, "filesystem"))
	assert.False(t, g.Enabled("filesystem"))
	assert.False(t, g.Status()["filesystem"])
}

func TestInvokeRequiresEnabled(t *testing.T) {
	g, _ := testGateway(t)

	_, err := g.Invoke(context.Background(), "filesystem", "read_file", nil)
	require.Error(t, err)
	assert.Equal(t, mcp.ErrorCodeNotConnected, mcp.GetError(err).Code)
}

func TestInvokeDelegates(t *testing.T) {
	g, rt := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Enable(ctx, "filesystem", nil))

	result, err := g.Invoke(ctx, "filesystem", "read_file", map[string]interface{}{"path": "/tmp/x"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	require.Len(t, rt.Calls, 1)
	assert.Equal(t, "read_file", rt.Calls[0].Tool)
}

func TestReadyServers(t *testing.T) {
	g, rt := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Enable(ctx, "filesystem", nil))
	require.NoError(t, g.Enable(ctx, "memory", nil))

	// A server running outside the gateway is not ready for routing.
	require.NoError(t, rt.Start(ctx, mcp.LaunchSpec{Name: "rogue", Command: "x"}))

	assert.Equal(t, []string{"filesystem", "memory"}, g.ReadyServers())
}

func TestStatusCoversCatalog(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Enable(ctx, "git", nil))

	status := g.Status()
	assert.True(t, status["git"])
	assert.False(t, status["filesystem"])
	assert.Contains(t, status, "github")
	assert.Contains(t, status, "memory")
}
