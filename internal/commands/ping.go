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

func newPingCommand() *cobra.Command {
	var (
		envVar  envFlag
		envFile string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "ping <server>",
		Short: "Start a server and measure its response time",
		Example: `  asmbli ping filesystem
  asmbli ping github --env GITHUB_TOKEN=ghp_xxx --count 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(args[0], envFile, envVar.entries, count)
		},
	}

	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().IntVar(&count, "count", 1, "Number of pings to send")

	return cmd
}

func runPing(id, envFile string, envFlags []string, count int) error {
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

	if err := enableServers(ctx, sess, []string{id}, creds); err != nil {
		printError(err)
		return err
	}

	if count < 1 {
		count = 1
	}

	var rtts []time.Duration
	for i := 0; i < count; i++ {
		rtt, err := sess.gateway.Ping(ctx, id)
		if err != nil {
			printError(err)
			return err
		}
		rtts = append(rtts, rtt)
		if !jsonOutput {
			fmt.Printf("ping %s: %v\n", id, rtt.Round(time.Microsecond))
		}
	}

	if jsonOutput {
		out := struct {
			Server string  `json:"server"`
			RTTms  []int64 `json:"rtt_ms"`
		}{Server: id}
		for _, rtt := range rtts {
			out.RTTms = append(out.RTTms, rtt.Milliseconds())
		}
		return printJSON(out)
	}

	return nil
}
