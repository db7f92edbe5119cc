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

package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mikedesigns-nvisia/asmbli/internal/config"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

// catalogFile is the on-disk shape of servers.yaml.
type catalogFile struct {
	Servers map[string]ServerSpec `yaml:"servers"`
}

// Catalog is the set of known server specs: compiled-in defaults
// overlaid with entries from servers.yaml. Safe for concurrent use.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	specs map[string]ServerSpec
}

// CatalogPath returns the location of servers.yaml.
func CatalogPath() (string, error) {
	return config.CatalogPath()
}

// Load builds a catalog from the default servers.yaml location. A
// missing file yields the builtin specs alone.
func Load(logger *slog.Logger) (*Catalog, error) {
	path, err := CatalogPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, logger)
}

// LoadFrom builds a catalog from an explicit file path.
func LoadFrom(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{path: path, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads servers.yaml and swaps the spec set. Invalid
// content leaves the previous specs in place.
func (c *Catalog) Reload() error {
	specs := builtinSpecs()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read catalog: %w", err)
		}
	} else {
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return mcp.ErrInvalidConfig(fmt.Sprintf("parse %s: %v", c.path, err))
		}
		for id, spec := range file.Servers {
			spec.ID = id
			specs[id] = spec
		}
	}

	for id, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return fmt.Errorf("server %q: %w", id, err)
		}
	}

	c.mu.Lock()
	c.specs = specs
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", slog.Int("specs", len(specs)))
	return nil
}

// validateSpec screens a descriptor before it becomes launchable.
func validateSpec(spec ServerSpec) error {
	if err := mcp.ValidateServerName(spec.ID); err != nil {
		return err
	}
	if spec.Command == "" {
		return mcp.ErrInvalidConfig("command is required")
	}
	for _, arg := range spec.Args {
		if err := mcp.ValidateArg(arg); err != nil {
			return err
		}
	}
	for key, value := range spec.Defaults {
		if err := mcp.ValidateEnv(key + "=" + value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the spec for an id.
func (c *Catalog) Get(id string) (ServerSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[id]
	return spec, ok
}

// List returns all specs sorted by id.
func (c *Catalog) List() []ServerSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ServerSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Path returns the servers.yaml location backing this catalog.
func (c *Catalog) Path() string {
	return c.path
}
