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

func newDisableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable <server>",
		Short: "Stop a running server",
		Long: `Stop a running server. The server is asked to shut down cleanly and
is killed if it does not exit within the grace period. Disable never
fails: the server is marked disabled even when the process has to be
killed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisable(args[0])
		},
	}

	return cmd
}

func runDisable(id string) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := sess.gateway.Disable(ctx, id); err != nil {
		printError(err)
		return err
	}

	if jsonOutput {
		return printJSON(struct {
			Server  string `json:"server"`
			Enabled bool   `json:"enabled"`
		}{id, false})
	}

	fmt.Printf("Server '%s' disabled\n", id)
	return nil
}
