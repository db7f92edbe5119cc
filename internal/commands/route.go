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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikedesigns-nvisia/asmbli/internal/bridge"
)

func newRouteCommand() *cobra.Command {
	var (
		enableIDs []string
		envVar    envFlag
		envFile   string
		stream    bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "route <request text>",
		Short: "Route a plain-text request to matching server tools",
		Long: `Route a plain-text request to the tools of the enabled servers. The
request is classified by keywords, matching tools are selected on
each server, arguments are extracted from the text, and all selected
invocations run in parallel. The composed result is printed.

Servers to use are listed with --enable and live for the duration of
the command.`,
		Example: `  # Route against the filesystem server
  asmbli route --enable filesystem "read the file 'README.md'"

  # Route against several servers, streaming the response
  asmbli route --enable filesystem --enable git --stream \
      "summarise the latest commits"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return runRoute(text, enableIDs, envFile, envVar.entries, stream, timeout)
		},
	}

	cmd.Flags().StringArrayVar(&enableIDs, "enable", nil, "Catalog server to route against (repeatable)")
	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the response as it is composed")
	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "Overall timeout")

	return cmd
}

func runRoute(text string, enableIDs []string, envFile string, envFlags []string, stream bool, timeout time.Duration) error {
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

	if err := enableServers(ctx, sess, enableIDs, creds); err != nil {
		printError(err)
		return err
	}

	if stream && !jsonOutput {
		_, err := sess.gateway.StreamRoute(ctx, text, func(chunk bridge.Chunk) error {
			if !chunk.Done {
				fmt.Print(chunk.Text)
			}
			return nil
		})
		if err != nil {
			printError(err)
			return err
		}
		fmt.Println()
		return nil
	}

	outcome, err := sess.gateway.Route(ctx, text)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOutput {
		return printJSON(outcome)
	}

	fmt.Println(outcome.Response)
	return nil
}
