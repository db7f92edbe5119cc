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

func newLogsCommand() *cobra.Command {
	var (
		envVar  envFlag
		envFile string
		lines   int
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "logs <server>",
		Short: "Start a server and show its diagnostic output",
		Long: `Start a server, let it run briefly, and print the stderr lines it
produced. Useful for diagnosing servers that fail their handshake or
log startup warnings.`,
		Example: `  asmbli logs filesystem
  asmbli logs github --env GITHUB_TOKEN=ghp_xxx --lines 50 --wait 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(args[0], envFile, envVar.entries, lines, wait)
		},
	}

	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of lines to show")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to let the server run")

	return cmd
}

func runLogs(id, envFile string, envFlags []string, lines int, wait time.Duration) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Capture startup output even when the handshake fails.
	enableErr := enableServers(ctx, sess, []string{id}, creds)

	time.Sleep(wait)

	captured := sess.manager.Logs().Tail(id, lines)

	if jsonOutput {
		return printJSON(struct {
			Server string      `json:"server"`
			Logs   interface{} `json:"logs"`
		}{id, captured})
	}

	if len(captured) == 0 {
		fmt.Printf("No diagnostic output from server '%s'\n", id)
	}
	for _, line := range captured {
		fmt.Printf("[%s] %s\n", line.Timestamp.Format(time.RFC3339), line.Text)
	}

	if enableErr != nil {
		printError(enableErr)
		return enableErr
	}
	return nil
}
