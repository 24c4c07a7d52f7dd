// Copyright 2025 Ewout Prangsma
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
//
// Author Ewout Prangsma
//

// Package scripts finds lab automation scripts in a directory and runs
// them with the lab environment variables applied.
package scripts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

var (
	maskAny = errors.WithStack
)

// Scripts finds executable scripts in a directory and watches it for
// changes.
type Scripts struct {
	log zerolog.Logger
	dir string

	mutex   sync.RWMutex
	scripts []Script
}

// New scans the given directory for scripts.
func New(log zerolog.Logger, dir string) (*Scripts, error) {
	log = log.With().Str("component", "scripts").Logger()
	info, err := os.Stat(dir)
	if err != nil {
		return nil, maskAny(err)
	}
	if !info.IsDir() {
		return nil, maskAny(errors.Wrapf(model.ValidationError, "'%s' is not a directory", dir))
	}
	s := &Scripts{
		log: log,
		dir: dir,
	}
	if err := s.Rescan(); err != nil {
		return nil, maskAny(err)
	}
	return s, nil
}

// Dir returns the scripts directory.
func (s *Scripts) Dir() string {
	return s.dir
}

// List returns the found scripts in natural name order.
func (s *Scripts) List() []Script {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]Script, len(s.scripts))
	copy(result, s.scripts)
	return result
}

// Get returns the script with the given file name.
func (s *Scripts) Get(name string) (Script, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, script := range s.scripts {
		if script.Name() == name {
			return script, nil
		}
	}
	return Script{}, maskAny(errors.Wrapf(model.NotFoundError, "script '%s'", name))
}

// Rescan re-reads the scripts directory.
// Entries that are not scripts are skipped.
func (s *Scripts) Rescan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return maskAny(err)
	}
	scripts := make([]Script, 0, len(entries))
	for _, entry := range entries {
		script, err := NewScript(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// Not a script
			continue
		}
		scripts = append(scripts, script)
	}
	sort.Slice(scripts, func(i, j int) bool {
		return model.CompareNatural(scripts[i].Name(), scripts[j].Name()) < 0
	})

	s.mutex.Lock()
	s.scripts = scripts
	s.mutex.Unlock()
	return nil
}

// Watch watches the scripts directory until the context is cancelled.
// Every change triggers a rescan and a notification on the returned
// channel. The channel is closed when the watch ends.
func (s *Scripts) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, maskAny(err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, maskAny(err)
	}
	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				if err := s.Rescan(); err != nil {
					s.log.Warn().Err(err).Msg("Rescan after change failed")
				}
				select {
				case changes <- struct{}{}:
				default:
					// A notification is already pending
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("Watch error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, nil
}
