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

// Package commands wires the asmbli CLI. Each invocation builds one
// session: catalog, runtime manager, and gateway live for the life of
// the process, and every server started along the way is stopped on
// exit. The serve command holds a session open.
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikedesigns-nvisia/asmbli/internal/catalog"
	"github.com/mikedesigns-nvisia/asmbli/internal/log"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
	"github.com/mikedesigns-nvisia/asmbli/pkg/observability"
)

var (
	jsonOutput bool
	debugMode  bool
)

// session is the per-invocation application wiring.
type session struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	catalog *catalog.Catalog
	manager *mcp.Manager
	gateway *catalog.Gateway
}

func newSession() (*session, error) {
	cfg := log.FromEnv()
	if debugMode {
		cfg.Level = "debug"
	}
	logger := log.New(cfg)

	cat, err := catalog.Load(logger)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	manager := mcp.NewManager(mcp.ManagerConfig{
		Logger:  logger,
		Metrics: metrics,
	})

	return &session{
		logger:  logger,
		metrics: metrics,
		catalog: cat,
		manager: manager,
		gateway: catalog.NewGateway(cat, manager, logger),
	}, nil
}

// close stops every server this session started.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.manager.StopAll(ctx)
}

// NewRootCommand builds the asmbli command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "asmbli",
		Short: "Run MCP tool servers and route requests to their capabilities",
		Long: `Asmbli manages MCP (Model Context Protocol) tool servers: it starts
them as child processes, speaks JSON-RPC over their stdio, discovers
the tools and resources they offer, and routes plain-text requests to
matching capabilities.

Servers started by a command live until that command exits. Use
'asmbli serve' to keep servers running with health checks and catalog
hot reload.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	root.AddCommand(newListCommand())
	root.AddCommand(newEnableCommand())
	root.AddCommand(newDisableCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newPingCommand())
	root.AddCommand(newInvokeCommand())
	root.AddCommand(newRouteCommand())
	root.AddCommand(newLogsCommand())
	root.AddCommand(newServeCommand())

	return root
}
