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

package power

import (
	"context"
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

// GPIOConfig holds the configuration of a GPIO power driver.
type GPIOConfig struct {
	// Pin is the sysfs GPIO number wired to the power relay.
	Pin int
	// ActiveLow inverts the pin polarity.
	ActiveLow bool
	// CycleDelay is the time between off and on during a power cycle.
	CycleDelay time.Duration
}

// gpioDriver drives a power relay through a single sysfs GPIO output pin.
// The pin is exported on first use so constructing the driver does not
// touch the hardware yet.
type gpioDriver struct {
	config GPIOConfig
	log    zerolog.Logger

	mutex sync.Mutex
	pin   gpio.OutputPin
	state bool
}

// NewGPIO creates a power driver that switches a relay on the given
// GPIO pin.
func NewGPIO(config GPIOConfig, log zerolog.Logger) (Protocol, error) {
	if config.Pin <= 0 {
		return nil, maskAny(errors.Wrapf(model.ValidationError, "invalid gpio pin %d", config.Pin))
	}
	return &gpioDriver{
		config: config,
		log:    log.With().Str("component", "power-gpio").Logger(),
	}, nil
}

// On switches power on.
func (d *gpioDriver) On(ctx context.Context) error {
	operationsTotal.WithLabelValues("gpio", "on").Inc()
	if err := d.set(true); err != nil {
		operationErrorsTotal.WithLabelValues("gpio", "on").Inc()
		return maskAny(err)
	}
	return nil
}

// Off switches power off.
func (d *gpioDriver) Off(ctx context.Context) error {
	operationsTotal.WithLabelValues("gpio", "off").Inc()
	if err := d.set(false); err != nil {
		operationErrorsTotal.WithLabelValues("gpio", "off").Inc()
		return maskAny(err)
	}
	return nil
}

// Cycle switches power off, waits and switches power back on.
func (d *gpioDriver) Cycle(ctx context.Context) error {
	return maskAny(cycleByToggle(ctx, d, d.config.CycleDelay))
}

// Get returns the last written power state.
// Sysfs does not report the value of an output pin reliably, so the
// state is tracked locally and unknown until the first write.
func (d *gpioDriver) Get(ctx context.Context) (bool, error) {
	operationsTotal.WithLabelValues("gpio", "get").Inc()
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.pin == nil {
		return false, maskAny(errors.Wrap(UnknownStateError, "pin not written yet"))
	}
	return d.state, nil
}

// Capability returns the capability name of this driver.
func (d *gpioDriver) Capability() string {
	return Capability
}

// Close releases all resources held by this driver.
// The pin keeps its last written value.
func (d *gpioDriver) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pin = nil
	return nil
}

// set writes the given value to the pin, exporting it first when needed.
func (d *gpioDriver) set(value bool) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.pin == nil {
		pin, err := gpio.Output(d.config.Pin, d.config.ActiveLow, value)
		if err != nil {
			return maskAny(errors.Wrapf(err, "Output[%d] failed", d.config.Pin))
		}
		d.pin = pin
		d.state = value
		return nil
	}
	if err := d.pin.Write(value); err != nil {
		return maskAny(errors.Wrap(err, "Write failed"))
	}
	d.state = value
	return nil
}
