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
	"time"

	"github.com/spf13/cobra"
)

func newEnableCommand() *cobra.Command {
	var (
		envVar  envFlag
		envFile string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "enable <server>",
		Short: "Start a catalog server and verify its capabilities",
		Long: `Start a catalog server, run the protocol handshake, and report the
tools and resources it offers. Missing required credentials fail the
command before any process is spawned.

Servers started this way live until the command exits; use
'asmbli serve' to keep them running.`,
		Example: `  # Enable the filesystem server
  asmbli enable filesystem

  # Provide a credential on the command line
  asmbli enable github --env GITHUB_TOKEN=ghp_xxx

  # Load credentials from a .env file
  asmbli enable github --env-file ~/.config/asmbli/github.env`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnable(args[0], envFile, envVar.entries, timeout)
		},
	}

	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Startup and discovery timeout")

	return cmd
}

func runEnable(id, envFile string, envFlags []string, timeout time.Duration) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	creds, err := collectCredentials(envFile, envFlags)
	if err != nil {
		printError(err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sess.gateway.Enable(ctx, id, creds); err != nil {
		printError(err)
		return err
	}

	caps, err := sess.gateway.Capabilities(id)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOutput {
		return printJSON(struct {
			Server    string      `json:"server"`
			Enabled   bool        `json:"enabled"`
			Tools     int         `json:"tools"`
			Resources int         `json:"resources"`
			Detail    interface{} `json:"capabilities"`
		}{id, true, len(caps.Tools), len(caps.Resources), caps})
	}

	fmt.Printf("Server '%s' is up: %d tools, %d resources\n",
		id, len(caps.Tools), len(caps.Resources))
	for _, tool := range caps.Tools {
		fmt.Printf("  %-28s %s\n", tool.Name, truncate(tool.Description, 60))
	}
	for _, res := range caps.Resources {
		fmt.Printf("  %-28s %s\n", res.URI, truncate(res.Name, 60))
	}

	return nil
}
