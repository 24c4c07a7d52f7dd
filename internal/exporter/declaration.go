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

package exporter

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/labnet/LabClient/model"
)

// Declaration declares the resources an exporter offers.
type Declaration struct {
	// Name overrides the exporter name (host identity when empty).
	Name string `yaml:"name,omitempty"`
	// Coordinator address (optional, defaults apply).
	Coordinator string `yaml:"coordinator,omitempty"`
	// Groups of resources by group name.
	Groups map[string]GroupDeclaration `yaml:"groups"`
}

// GroupDeclaration declares the resources of one group.
type GroupDeclaration struct {
	Resources []ResourceDeclaration `yaml:"resources"`
}

// ResourceDeclaration declares one exported resource.
type ResourceDeclaration struct {
	Name   string                      `yaml:"name"`
	Class  string                      `yaml:"cls"`
	Params map[string]model.ParamValue `yaml:"params,omitempty"`
	Extra  map[string]model.ParamValue `yaml:"extra,omitempty"`
}

// LoadDeclaration reads and validates an exporter declaration file.
func LoadDeclaration(path string) (Declaration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Declaration{}, maskAny(err)
	}
	var decl Declaration
	if err := yaml.Unmarshal(content, &decl); err != nil {
		return Declaration{}, maskAny(errors.Wrapf(model.ValidationError, "cannot parse '%s': %s", path, err))
	}
	if err := decl.Validate(); err != nil {
		return Declaration{}, maskAny(errors.Wrapf(err, "invalid declaration '%s'", path))
	}
	return decl, nil
}

// Validate the declaration.
func (d Declaration) Validate() error {
	if len(d.Groups) == 0 {
		return maskAny(errors.Wrap(model.ValidationError, "no groups declared"))
	}
	for name, g := range d.Groups {
		if name == "" {
			return maskAny(errors.Wrap(model.ValidationError, "group name empty"))
		}
		if err := g.Validate(); err != nil {
			return maskAny(errors.Wrapf(err, "group '%s'", name))
		}
	}
	return nil
}

// Validate the declaration.
func (g GroupDeclaration) Validate() error {
	if len(g.Resources) == 0 {
		return maskAny(errors.Wrap(model.ValidationError, "no resources declared"))
	}
	names := make(map[string]struct{})
	for i, r := range g.Resources {
		if err := r.Validate(); err != nil {
			return maskAny(errors.Wrapf(err, "resource %d", i))
		}
		if _, found := names[r.Name]; found {
			return maskAny(errors.Wrapf(model.ValidationError, "duplicate resource name '%s'", r.Name))
		}
		names[r.Name] = struct{}{}
	}
	return nil
}

// Validate the declaration.
func (r ResourceDeclaration) Validate() error {
	if r.Name == "" {
		return maskAny(errors.Wrap(model.ValidationError, "resource name empty"))
	}
	if r.Class == "" {
		return maskAny(errors.Wrapf(model.ValidationError, "resource '%s' has no cls", r.Name))
	}
	return nil
}
