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
	"os"
	"strings"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"

	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// envFlag collects repeated --env KEY=VALUE flags, rejecting malformed
// entries at parse time.
type envFlag struct {
	entries []string
}

var _ pflag.Value = (*envFlag)(nil)

func (f *envFlag) String() string { return strings.Join(f.entries, ",") }

func (f *envFlag) Set(value string) error {
	if err := mcp.ValidateEnv(value); err != nil {
		return err
	}
	f.entries = append(f.entries, value)
	return nil
}

func (f *envFlag) Type() string { return "KEY=VALUE" }

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// collectCredentials merges an optional .env file with --env flags.
// Flags win over file entries.
func collectCredentials(envFile string, envFlags []string) (map[string]string, error) {
	creds := make(map[string]string)

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil {
			return nil, mcp.NewError(mcp.ErrorCodeConfig,
				fmt.Sprintf("Failed to read env file '%s'", envFile)).WithCause(err)
		}
		for k, v := range fromFile {
			creds[k] = v
		}
	}

	for _, entry := range envFlags {
		if err := mcp.ValidateEnv(entry); err != nil {
			return nil, err
		}
		key, value, _ := strings.Cut(entry, "=")
		creds[key] = value
	}

	return creds, nil
}

// enableServers starts each listed catalog server with the shared
// credential set.
func enableServers(ctx context.Context, sess *session, ids []string, creds map[string]string) error {
	for _, id := range ids {
		if err := sess.gateway.Enable(ctx, id, creds); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// printError renders an error with its suggestions, if any.
func printError(err error) {
	if mcpErr := mcp.GetError(err); mcpErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", mcpErr.UserMessage())
		for _, s := range mcpErr.Suggestions {
			fmt.Fprintln(os.Stderr, "  -", s)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}
