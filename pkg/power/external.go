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
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

// ExternalConfig holds the configuration of an external power driver.
type ExternalConfig struct {
	// OnCommand is the argv run to switch power on.
	OnCommand []string
	// OffCommand is the argv run to switch power off.
	OffCommand []string
	// CycleCommand is the argv run to power cycle.
	// When empty, a cycle is performed as off, wait, on.
	CycleCommand []string
	// GetCommand is the argv run to read the power state.
	// Its output must parse as a bool (1/0, on/off, true/false).
	GetCommand []string
	// CycleDelay is the time between off and on when CycleCommand is empty.
	CycleDelay time.Duration
}

// external switches power by running user configured commands.
// The actual power control protocol lives entirely in those commands.
type external struct {
	config ExternalConfig
	log    zerolog.Logger
}

// NewExternal creates a power driver that delegates to the commands in
// the given configuration.
func NewExternal(config ExternalConfig, log zerolog.Logger) (Protocol, error) {
	if len(config.OnCommand) == 0 {
		return nil, maskAny(errors.Wrap(model.ValidationError, "on command missing"))
	}
	if len(config.OffCommand) == 0 {
		return nil, maskAny(errors.Wrap(model.ValidationError, "off command missing"))
	}
	return &external{
		config: config,
		log:    log.With().Str("component", "power-external").Logger(),
	}, nil
}

// On switches power on.
func (d *external) On(ctx context.Context) error {
	operationsTotal.WithLabelValues("external", "on").Inc()
	if _, err := d.runCommand(ctx, d.config.OnCommand); err != nil {
		operationErrorsTotal.WithLabelValues("external", "on").Inc()
		return maskAny(err)
	}
	return nil
}

// Off switches power off.
func (d *external) Off(ctx context.Context) error {
	operationsTotal.WithLabelValues("external", "off").Inc()
	if _, err := d.runCommand(ctx, d.config.OffCommand); err != nil {
		operationErrorsTotal.WithLabelValues("external", "off").Inc()
		return maskAny(err)
	}
	return nil
}

// Cycle switches power off, waits and switches power back on.
func (d *external) Cycle(ctx context.Context) error {
	if len(d.config.CycleCommand) == 0 {
		return maskAny(cycleByToggle(ctx, d, d.config.CycleDelay))
	}
	operationsTotal.WithLabelValues("external", "cycle").Inc()
	if _, err := d.runCommand(ctx, d.config.CycleCommand); err != nil {
		operationErrorsTotal.WithLabelValues("external", "cycle").Inc()
		return maskAny(err)
	}
	return nil
}

// Get returns the current power state.
func (d *external) Get(ctx context.Context) (bool, error) {
	if len(d.config.GetCommand) == 0 {
		return false, maskAny(errors.Wrap(NotSupportedError, "get command missing"))
	}
	operationsTotal.WithLabelValues("external", "get").Inc()
	output, err := d.runCommand(ctx, d.config.GetCommand)
	if err != nil {
		operationErrorsTotal.WithLabelValues("external", "get").Inc()
		return false, maskAny(err)
	}
	on, err := parseBool(output)
	if err != nil {
		return false, maskAny(errors.Wrap(UnknownStateError, err.Error()))
	}
	return on, nil
}

// Capability returns the capability name of this driver.
func (d *external) Capability() string {
	return Capability
}

// Close releases all resources held by this driver.
func (d *external) Close() error {
	return nil
}

// runCommand runs the given argv and returns its combined output.
func (d *external) runCommand(ctx context.Context, argv []string) (string, error) {
	d.log.Debug().Str("command", strings.Join(argv, " ")).Msg("Running power command")
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", maskAny(errors.Wrapf(err, "command '%s' failed: %s", argv[0], strings.TrimSpace(string(output))))
	}
	return string(output), nil
}
