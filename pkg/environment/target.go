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
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/power"
)

// Driver is a capability provider assembled for a target.
type Driver interface {
	// Capability returns the capability name of this driver.
	Capability() string
	// Close releases all resources held by this driver.
	Close() error
}

// Target is a named device of the environment with its assembled
// drivers.
type Target struct {
	log     zerolog.Logger
	name    string
	config  TargetConfig
	drivers []Driver
}

// newTarget assembles the drivers declared for a single target.
func newTarget(log zerolog.Logger, name string, config TargetConfig) (*Target, error) {
	t := &Target{
		log:    log.With().Str("target", name).Logger(),
		name:   name,
		config: config,
	}
	for i, dc := range config.Drivers {
		var drv Driver
		var err error
		switch dc.Type {
		case DriverTypeExternal:
			drv, err = power.NewExternal(power.ExternalConfig{
				OnCommand:    dc.OnCommand,
				OffCommand:   dc.OffCommand,
				CycleCommand: dc.CycleCommand,
				GetCommand:   dc.GetCommand,
				CycleDelay:   time.Duration(dc.CycleDelay),
			}, t.log)
		case DriverTypeGPIO:
			drv, err = power.NewGPIO(power.GPIOConfig{
				Pin:        dc.Pin,
				ActiveLow:  dc.ActiveLow,
				CycleDelay: time.Duration(dc.CycleDelay),
			}, t.log)
		case DriverTypeTasmota:
			drv, err = power.NewTasmota(power.TasmotaConfig{
				Broker:     dc.Broker,
				Topic:      dc.Topic,
				OnPayload:  dc.OnPayload,
				OffPayload: dc.OffPayload,
				CycleDelay: time.Duration(dc.CycleDelay),
			}, t.log)
		case DriverTypeManual:
			drv, err = power.NewManual(power.ManualConfig{
				TargetName: name,
			}, t.log)
		case DriverTypeRemote:
			drv, err = power.NewRemote(power.RemoteConfig{
				Coordinator: config.Coordinator,
				Place:       config.Place,
				CycleDelay:  time.Duration(dc.CycleDelay),
			}, t.log)
		default:
			err = errors.Wrapf(model.ValidationError, "unsupported driver type '%s'", dc.Type)
		}
		if err != nil {
			t.close()
			return nil, maskAny(errors.Wrapf(err, "driver %d", i))
		}
		t.drivers = append(t.drivers, drv)
	}
	return t, nil
}

// Name returns the name of this target.
func (t *Target) Name() string {
	return t.name
}

// Place returns the name of the place backing this target, if any.
func (t *Target) Place() string {
	return t.config.Place
}

// Drivers returns all drivers of this target.
func (t *Target) Drivers() []Driver {
	result := make([]Driver, len(t.drivers))
	copy(result, t.drivers)
	return result
}

// Driver returns the first driver of this target providing the given
// capability.
func (t *Target) Driver(capability string) (Driver, error) {
	for _, d := range t.drivers {
		if d.Capability() == capability {
			return d, nil
		}
	}
	return nil, maskAny(errors.Wrapf(model.NotFoundError, "target '%s' has no driver with capability '%s'", t.name, capability))
}

// PowerProtocol returns the power driver of this target.
func (t *Target) PowerProtocol() (power.Protocol, error) {
	d, err := t.Driver(power.Capability)
	if err != nil {
		return nil, maskAny(err)
	}
	p, ok := d.(power.Protocol)
	if !ok {
		return nil, maskAny(errors.Wrapf(model.NotFoundError, "target '%s' has no power driver", t.name))
	}
	return p, nil
}

// close releases all drivers of this target.
func (t *Target) close() error {
	var ae aerr.AggregateError
	for _, d := range t.drivers {
		if err := d.Close(); err != nil {
			ae.Add(err)
		}
	}
	t.drivers = nil
	return ae.AsError()
}
