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

package environment

import (
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/labnet/LabClient/model"
)

// DriverType identifies the kind of a declared driver.
type DriverType string

const (
	// DriverTypeExternal switches power through configured commands.
	DriverTypeExternal DriverType = "external"
	// DriverTypeGPIO switches power through a sysfs GPIO pin.
	DriverTypeGPIO DriverType = "gpio"
	// DriverTypeTasmota switches power through a Tasmota smart plug.
	DriverTypeTasmota DriverType = "tasmota"
	// DriverTypeManual asks the operator to switch power by hand.
	DriverTypeManual DriverType = "manual"
	// DriverTypeRemote switches power through a place on the coordinator.
	DriverTypeRemote DriverType = "remote"
)

// Config is the root of an environment description file.
type Config struct {
	// Targets declared in this environment.
	Targets map[string]TargetConfig `yaml:"targets"`
	// Options holds free form environment settings.
	Options map[string]model.ParamValue `yaml:"options,omitempty"`
}

// TargetConfig declares a single target.
type TargetConfig struct {
	// Place is the coordinator place backing this target (optional).
	Place string `yaml:"place,omitempty"`
	// Coordinator is the coordinator address for place backed drivers
	// (optional, defaults apply).
	Coordinator string `yaml:"coordinator,omitempty"`
	// Drivers of this target, in lookup order.
	Drivers []DriverConfig `yaml:"drivers"`
}

// DriverConfig declares a single driver of a target.
// Which fields apply depends on Type.
type DriverConfig struct {
	Type DriverType `yaml:"type"`

	// Commands of an external driver.
	OnCommand    []string `yaml:"on_cmd,omitempty"`
	OffCommand   []string `yaml:"off_cmd,omitempty"`
	CycleCommand []string `yaml:"cycle_cmd,omitempty"`
	GetCommand   []string `yaml:"get_cmd,omitempty"`

	// Pin settings of a gpio driver.
	Pin       int  `yaml:"pin,omitempty"`
	ActiveLow bool `yaml:"active_low,omitempty"`

	// MQTT settings of a tasmota driver.
	Broker     string `yaml:"broker,omitempty"`
	Topic      string `yaml:"topic,omitempty"`
	OnPayload  string `yaml:"on_payload,omitempty"`
	OffPayload string `yaml:"off_payload,omitempty"`

	// CycleDelay between off and on during a power cycle.
	CycleDelay Duration `yaml:"cycle_delay,omitempty"`
}

// Duration parses from a YAML string like "2s".
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return maskAny(errors.Wrapf(model.ValidationError, "invalid duration: %s", err))
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return maskAny(errors.Wrapf(model.ValidationError, "invalid duration '%s'", s))
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadConfig reads and validates an environment description file.
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, maskAny(err)
	}
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, maskAny(errors.Wrapf(model.ValidationError, "cannot parse '%s': %s", path, err))
	}
	if err := config.Validate(); err != nil {
		return Config{}, maskAny(errors.Wrapf(err, "invalid environment '%s'", path))
	}
	return config, nil
}

// Validate the configuration.
func (c Config) Validate() error {
	if len(c.Targets) == 0 {
		return maskAny(errors.Wrap(model.ValidationError, "no targets declared"))
	}
	for name, t := range c.Targets {
		if name == "" {
			return maskAny(errors.Wrap(model.ValidationError, "target name empty"))
		}
		if err := t.Validate(); err != nil {
			return maskAny(errors.Wrapf(err, "target '%s'", name))
		}
	}
	return nil
}

// Validate the configuration.
// A target without drivers is allowed, it only backs a coordinator
// place.
func (t TargetConfig) Validate() error {
	for i, d := range t.Drivers {
		if err := d.Validate(); err != nil {
			return maskAny(errors.Wrapf(err, "driver %d", i))
		}
		if d.Type == DriverTypeRemote && t.Place == "" {
			return maskAny(errors.Wrapf(model.ValidationError, "driver %d: remote driver needs a place", i))
		}
	}
	return nil
}

// Validate the configuration.
func (d DriverConfig) Validate() error {
	switch d.Type {
	case DriverTypeExternal:
		if len(d.OnCommand) == 0 {
			return maskAny(errors.Wrap(model.ValidationError, "on_cmd missing"))
		}
		if len(d.OffCommand) == 0 {
			return maskAny(errors.Wrap(model.ValidationError, "off_cmd missing"))
		}
	case DriverTypeGPIO:
		if d.Pin <= 0 {
			return maskAny(errors.Wrapf(model.ValidationError, "invalid pin %d", d.Pin))
		}
	case DriverTypeTasmota:
		if d.Broker == "" {
			return maskAny(errors.Wrap(model.ValidationError, "broker missing"))
		}
		if d.Topic == "" {
			return maskAny(errors.Wrap(model.ValidationError, "topic missing"))
		}
	case DriverTypeManual, DriverTypeRemote:
		// No own settings
	default:
		return maskAny(errors.Wrapf(model.ValidationError, "unsupported driver type '%s'", d.Type))
	}
	return nil
}
