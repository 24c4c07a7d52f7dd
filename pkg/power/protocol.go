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
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Capability is the capability name shared by all power drivers.
const Capability = "PowerProtocol"

// Protocol is a switchable power port.
// Every operation is a single attempt; failures are returned to the
// caller unchanged.
type Protocol interface {
	// On switches power on.
	On(ctx context.Context) error
	// Off switches power off.
	Off(ctx context.Context) error
	// Cycle switches power off, waits and switches power back on.
	Cycle(ctx context.Context) error
	// Get returns the current power state.
	Get(ctx context.Context) (bool, error)
	// Capability returns the capability name of this driver.
	Capability() string
	// Close releases all resources held by this driver.
	Close() error
}

const defaultCycleDelay = time.Second * 2

// cycleByToggle implements a power cycle as off, wait, on for drivers
// without a native cycle operation.
func cycleByToggle(ctx context.Context, p Protocol, delay time.Duration) error {
	if delay <= 0 {
		delay = defaultCycleDelay
	}
	if err := p.Off(ctx); err != nil {
		return maskAny(err)
	}
	select {
	case <-time.After(delay):
		// Continue
	case <-ctx.Done():
		return maskAny(ctx.Err())
	}
	if err := p.On(ctx); err != nil {
		return maskAny(err)
	}
	return nil
}

// parseBool parses a power state string.
func parseBool(str string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "1", "t", "true", "on", "yes":
		return true, nil
	case "0", "f", "false", "off", "no":
		return false, nil
	}
	return false, errors.Errorf("invalid bool value '%s'", strings.TrimSpace(str))
}

// formatBool formats a power state.
func formatBool(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
