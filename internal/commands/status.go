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
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [server]",
		Short: "Show server states",
		Long: `Show the state of every catalog server, or detailed status for one.
Within a session, states move starting -> initializing -> ready, may
dip to degraded when health pings fail, and end at stopped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runStatusOne(args[0])
			}
			return runStatusAll()
		},
	}

	return cmd
}

func runStatusAll() error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	enabled := sess.gateway.Status()
	running := make(map[string]mcp.Status)
	for _, st := range sess.gateway.ServerStatuses() {
		running[st.Name] = st
	}

	if jsonOutput {
		type serverStatus struct {
			ID      string `json:"id"`
			Enabled bool   `json:"enabled"`
			State   string `json:"state,omitempty"`
		}
		out := struct {
			Servers []serverStatus `json:"servers"`
		}{}
		for _, spec := range sess.catalog.List() {
			entry := serverStatus{ID: spec.ID, Enabled: enabled[spec.ID]}
			if st, ok := running[spec.ID]; ok {
				entry.State = string(st.State)
			}
			out.Servers = append(out.Servers, entry)
		}
		return printJSON(out)
	}

	fmt.Printf("%-14s %-10s %s\n", "ID", "ENABLED", "STATE")
	fmt.Println(strings.Repeat("-", 40))
	for _, spec := range sess.catalog.List() {
		state := "-"
		if st, ok := running[spec.ID]; ok {
			state = string(st.State)
		}
		fmt.Printf("%-14s %-10t %s\n", spec.ID, enabled[spec.ID], state)
	}

	return nil
}

func runStatusOne(id string) error {
	sess, err := newSession()
	if err != nil {
		printError(err)
		return err
	}
	defer sess.close()

	spec, ok := sess.catalog.Get(id)
	if !ok {
		err := mcp.ErrServerNotFound(id)
		printError(err)
		return err
	}

	var status *mcp.Status
	for _, st := range sess.gateway.ServerStatuses() {
		if st.Name == id {
			status = &st
			break
		}
	}

	if jsonOutput {
		return printJSON(struct {
			ID      string      `json:"id"`
			Enabled bool        `json:"enabled"`
			Spec    interface{} `json:"spec"`
			Status  *mcp.Status `json:"status,omitempty"`
		}{id, sess.gateway.Enabled(id), spec, status})
	}

	fmt.Printf("Server:      %s (%s)\n", spec.ID, spec.DisplayName)
	fmt.Printf("Category:    %s\n", spec.Category)
	fmt.Printf("Command:     %s %s\n", spec.Command, strings.Join(spec.Args, " "))
	fmt.Printf("Enabled:     %t\n", sess.gateway.Enabled(id))
	if status != nil {
		fmt.Printf("State:       %s\n", status.State)
		if status.PID != 0 {
			fmt.Printf("PID:         %d\n", status.PID)
		}
		if status.Uptime != "" {
			fmt.Printf("Uptime:      %s\n", status.Uptime)
		}
		fmt.Printf("Tools:       %d\n", status.ToolCount)
		if status.LastError != "" {
			fmt.Printf("Last error:  %s\n", status.LastError)
		}
	}
	if names := requiredEnvNames(spec); len(names) > 0 {
		fmt.Printf("Credentials: %s\n", strings.Join(names, ", "))
	}

	return nil
}
