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
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
)

// Watcher reloads the catalog when servers.yaml changes on disk.
// Editors tend to fire several events per save, so reloads are
// debounced.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	catalog   *Catalog
	logger    *slog.Logger

	debounceDelay time.Duration

	// onReload, if set, runs after each successful reload.
	onReload func()

	mu      sync.Mutex
	pending *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherConfig configures the catalog watcher.
type WatcherConfig struct {
	// Catalog is the catalog to reload on change.
	Catalog *Catalog

	// Logger is used for structured logging (optional).
	Logger *slog.Logger

	// DebounceDelay is the settle time after a change before the
	// reload runs (defaults to 200ms).
	DebounceDelay time.Duration

	// OnReload runs after each successful reload (optional).
	OnReload func()
}

// NewWatcher starts watching the catalog's backing file. The watch is
// on the parent directory so atomic rename-into-place saves are seen.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = 200 * time.Millisecond
	}

	if err := fsWatcher.Add(filepath.Dir(cfg.Catalog.Path())); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsWatcher:     fsWatcher,
		catalog:       cfg.Catalog,
		logger:        log.WithComponent(logger, "catalog-watcher"),
		debounceDelay: delay,
		onReload:      cfg.OnReload,
		ctx:           ctx,
		cancel:        cancel,
	}

	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	target := w.catalog.Path()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("catalog watch error", log.Error(err))

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	if err := w.catalog.Reload(); err != nil {
		w.logger.Warn("catalog reload failed, keeping previous specs", log.Error(err))
		return
	}
	w.logger.Info("catalog reloaded")
	if w.onReload != nil {
		w.onReload()
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}
