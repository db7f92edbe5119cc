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
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mikedesigns-nvisia/asmbli/internal/catalog"
	"github.com/mikedesigns-nvisia/asmbli/internal/log"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func newServeCommand() *cobra.Command {
	var (
		envVar         envFlag
		envFile        string
		metricsAddr    string
		healthInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve <server> [server...]",
		Short: "Run servers until interrupted",
		Long: `Start the named catalog servers and keep them running until SIGINT or
SIGTERM. While running, servers are health-checked on an interval,
lifecycle events are logged, and edits to servers.yaml are picked up
without a restart. An optional HTTP endpoint exposes Prometheus
metrics.`,
		Example: `  # Run two servers with health checks
  asmbli serve filesystem memory

  # Expose metrics while serving
  asmbli serve filesystem --metrics-addr :9464`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args, envFile, envVar.entries, metricsAddr, healthInterval)
		},
	}

	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9464)")
	cmd.Flags().DurationVar(&healthInterval, "health-interval", mcp.DefaultHealthInterval, "Interval between health pings")

	return cmd
}

func runServe(ids []string, envFile string, envFlags []string, metricsAddr string, healthInterval time.Duration) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	logger := log.WithComponent(sess.logger, "serve")

	creds, err := collectCredentials(envFile, envFlags)
	if err != nil {
		printError(err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer startCancel()
	if err := enableServers(startCtx, sess, ids, creds); err != nil {
		printError(err)
		return err
	}
	startCancel()

	go sess.manager.RunHealthLoop(ctx, healthInterval)

	watcher, err := catalog.NewWatcher(catalog.WatcherConfig{
		Catalog: sess.catalog,
		Logger:  sess.logger,
		OnReload: func() {
			logger.Info("catalog reloaded", "path", sess.catalog.Path())
		},
	})
	if err != nil {
		logger.Warn("catalog watch unavailable", log.Error(err))
	} else {
		defer watcher.Close()
	}

	var metricsServer *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(sess.metrics.Registry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", log.Error(err))
			}
		}()
		logger.Info("metrics endpoint up", "addr", metricsAddr)
	}

	if !jsonOutput {
		fmt.Printf("Serving %d server(s); Ctrl+C to stop\n", len(ids))
	}
	logger.Info("serving", "servers", ids)

	<-ctx.Done()

	logger.Info("shutting down")
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}
