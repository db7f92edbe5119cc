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
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikedesigns-nvisia/asmbli/internal/catalog"
)

func newListCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the servers in the catalog",
		Long: `List the servers in the catalog with their category and any
credentials they require. Built-in servers are merged with entries
from servers.yaml in the asmbli config directory.`,
		Example: `  # List all catalog servers
  asmbli list

  # Only data servers
  asmbli list --category data

  # Server ids for scripting
  asmbli list --json | jq -r '.servers[].id'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(category)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only show servers in this category")

	return cmd
}

func runList(category string) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	specs := sess.catalog.List()
	if category != "" {
		filtered := specs[:0]
		for _, spec := range specs {
			if spec.Category == category {
				filtered = append(filtered, spec)
			}
		}
		specs = filtered
	}

	if jsonOutput {
		type listedServer struct {
			ID          string   `json:"id"`
			DisplayName string   `json:"displayName"`
			Category    string   `json:"category"`
			Description string   `json:"description,omitempty"`
			RequiredEnv []string `json:"requiredEnv,omitempty"`
			Supported   bool     `json:"supported"`
		}
		out := struct {
			Servers []listedServer `json:"servers"`
		}{Servers: make([]listedServer, 0, len(specs))}
		for _, spec := range specs {
			out.Servers = append(out.Servers, listedServer{
				ID:          spec.ID,
				DisplayName: spec.DisplayName,
				Category:    spec.Category,
				Description: spec.Description,
				RequiredEnv: requiredEnvNames(spec),
				Supported:   spec.SupportsPlatform(runtime.GOOS),
			})
		}
		return printJSON(out)
	}

	if len(specs) == 0 {
		fmt.Println("No servers in the catalog.")
		return nil
	}

	fmt.Printf("%-14s %-16s %-24s %s\n", "ID", "CATEGORY", "CREDENTIALS", "DESCRIPTION")
	fmt.Println(strings.Repeat("-", 90))
	for _, spec := range specs {
		creds := strings.Join(requiredEnvNames(spec), ",")
		if creds == "" {
			creds = "-"
		}
		fmt.Printf("%-14s %-16s %-24s %s\n",
			truncate(spec.ID, 14),
			truncate(spec.Category, 16),
			truncate(creds, 24),
			truncate(spec.Description, 34),
		)
	}

	return nil
}

func requiredEnvNames(spec catalog.ServerSpec) []string {
	var names []string
	for _, req := range spec.RequiredEnv {
		if req.Required {
			names = append(names, req.Name)
		}
	}
	return names
}
