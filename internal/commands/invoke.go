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

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func newInvokeCommand() *cobra.Command {
	var (
		envVar   envFlag
		envFile  string
		argsJSON string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "invoke <server> <tool>",
		Short: "Call one tool on a server",
		Long: `Start a server and call a single tool on it. Arguments are given as
a JSON object; the tool's schema is reported by 'asmbli enable'.`,
		Example: `  # No arguments
  asmbli invoke memory list_entities

  # JSON arguments
  asmbli invoke filesystem read_file --args '{"path": "README.md"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(args[0], args[1], argsJSON, envFile, envVar.entries, timeout)
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().Var(&envVar, "env", "Credential as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load credentials from a .env file")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall timeout")

	return cmd
}

func runInvoke(id, tool, argsJSON, envFile string, envFlags []string, timeout time.Duration) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	toolArgs := make(map[string]interface{})
	if argsJSON != "" {
		if err := codec.UnmarshalFromString(argsJSON, &toolArgs); err != nil {
			parseErr := mcp.NewError(mcp.ErrorCodeValidation, "Tool arguments must be a JSON object").
				WithDetail(err.Error())
			printError(parseErr)
			return parseErr
		}
	}

	creds, err := collectCredentials(envFile, envFlags)
	if err != nil {
		printError(err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := enableServers(ctx, sess, []string{id}, creds); err != nil {
		printError(err)
		return err
	}

	result, err := sess.gateway.Invoke(ctx, id, tool, toolArgs)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.IsError {
		fmt.Println("Tool reported an error:")
	}
	for _, item := range result.Content {
		if item.Type == "text" {
			fmt.Println(item.Text)
		} else {
			fmt.Printf("[%s content, %s]\n", item.Type, item.MimeType)
		}
	}

	return nil
}
