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

// Package environment loads lab environment description files and
// assembles the declared drivers of their targets.
package environment

import (
	"sort"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

var (
	maskAny = errors.WithStack
)

// Environment provides access to the targets of an environment
// description file.
type Environment struct {
	log     zerolog.Logger
	path    string
	config  Config
	targets map[string]*Target
}

// New loads the environment description at the given path and
// assembles the drivers of all its targets.
// Any load or assembly failure is returned, never recovered from.
func New(log zerolog.Logger, path string) (*Environment, error) {
	log = log.With().Str("component", "environment").Logger()
	config, err := LoadConfig(path)
	if err != nil {
		return nil, maskAny(err)
	}
	e := &Environment{
		log:     log,
		path:    path,
		config:  config,
		targets: make(map[string]*Target),
	}
	for name, tc := range config.Targets {
		target, err := newTarget(log, name, tc)
		if err != nil {
			// Release drivers assembled so far
			e.Close()
			return nil, maskAny(errors.Wrapf(err, "target '%s'", name))
		}
		e.targets[name] = target
	}
	log.Debug().
		Str("path", path).
		Int("targets", len(e.targets)).
		Msg("Environment loaded")
	return e, nil
}

// Path returns the path of the environment description file.
func (e *Environment) Path() string {
	return e.path
}

// Options returns the free form options of the environment.
func (e *Environment) Options() map[string]model.ParamValue {
	return e.config.Options
}

// TargetNames returns the names of all targets in natural order.
func (e *Environment) TargetNames() []string {
	names := make([]string, 0, len(e.targets))
	for name := range e.targets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return model.CompareNatural(names[i], names[j]) < 0
	})
	return names
}

// Target returns the target with given name.
func (e *Environment) Target(name string) (*Target, error) {
	if t, ok := e.targets[name]; ok {
		return t, nil
	}
	return nil, maskAny(errors.Wrapf(model.NotFoundError, "target '%s'", name))
}

// Close releases the drivers of all targets.
func (e *Environment) Close() error {
	var ae aerr.AggregateError
	for _, t := range e.targets {
		if err := t.close(); err != nil {
			ae.Add(err)
		}
	}
	return ae.AsError()
}
