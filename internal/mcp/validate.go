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

package mcp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// ServerNameRegex constrains server names: a leading letter, then
// letters, digits, hyphens, and underscores, 64 characters at most.
var ServerNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// ValidateServerName validates an MCP server name.
func ValidateServerName(name string) error {
	if !ServerNameRegex.MatchString(name) {
		return ErrInvalidServerName(name)
	}
	return nil
}

// ValidateCommand checks a command exists and is executable before a
// spawn is attempted.
func ValidateCommand(cmd string) error {
	if cmd == "" {
		return ErrInvalidConfig("command is required")
	}

	if filepath.IsAbs(cmd) {
		info, err := os.Stat(cmd)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrInvalidConfig(fmt.Sprintf("command not found: %s", cmd))
			}
			return ErrInvalidConfig(fmt.Sprintf("cannot access command: %v", err))
		}
		if info.IsDir() {
			return ErrInvalidConfig(fmt.Sprintf("command is a directory: %s", cmd))
		}
		if info.Mode()&0111 == 0 {
			return ErrInvalidConfig(fmt.Sprintf("command is not executable: %s", cmd))
		}
		return nil
	}

	if _, err := exec.LookPath(cmd); err != nil {
		return ErrInvalidConfig(fmt.Sprintf("command not found in PATH: %s", cmd))
	}
	return nil
}

// shellInjectionPatterns are substrings that could indicate shell
// injection attempts. Arguments are passed to exec directly, never
// through a shell, but values carrying these patterns are almost
// always a configuration mistake.
var shellInjectionPatterns = []string{
	";", "&&", "||", "|", "`", "$(", "${", "\n", "\r",
}

// ValidateArg screens a command argument for shell metacharacters.
func ValidateArg(arg string) error {
	for _, pattern := range shellInjectionPatterns {
		if strings.Contains(arg, pattern) {
			return ErrInvalidConfig(fmt.Sprintf("argument contains potentially unsafe pattern %q", pattern))
		}
	}
	return nil
}

var envKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateEnv validates one KEY=VALUE environment entry.
func ValidateEnv(env string) error {
	parts := strings.SplitN(env, "=", 2)
	if len(parts) != 2 {
		return ErrInvalidConfig("environment variable must be in KEY=VALUE format")
	}

	key := parts[0]
	if !envKeyRegex.MatchString(key) {
		return ErrInvalidConfig(fmt.Sprintf("invalid environment variable key: %s", key))
	}

	// ${VAR} is allowed in values for substitution.
	value := parts[1]
	for _, pattern := range shellInjectionPatterns {
		if pattern == "${" {
			continue
		}
		if strings.Contains(value, pattern) {
			return ErrInvalidConfig(fmt.Sprintf("environment value contains potentially unsafe pattern %q", pattern))
		}
	}
	return nil
}

// sensitiveKeyPatterns are substrings that mark a value as sensitive.
var sensitiveKeyPatterns = []string{
	"SECRET", "TOKEN", "KEY", "PASSWORD", "CREDENTIAL", "AUTH", "API_KEY",
}

// IsSensitiveEnvKey returns true if the key appears to hold sensitive data.
func IsSensitiveEnvKey(key string) bool {
	upperKey := strings.ToUpper(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(upperKey, pattern) {
			return true
		}
	}
	return false
}

// RedactEnv masks sensitive values in an environment variable list.
func RedactEnv(envs []string) []string {
	result := make([]string, len(envs))
	for i, env := range envs {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 && IsSensitiveEnvKey(parts[0]) {
			result[i] = parts[0] + "=***REDACTED***"
		} else {
			result[i] = env
		}
	}
	return result
}
