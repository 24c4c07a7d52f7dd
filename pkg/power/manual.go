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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ManualConfig holds the configuration of a manual power driver.
type ManualConfig struct {
	// TargetName is shown in the operator prompts.
	TargetName string
	// Input overrides the prompt input (stdin when nil).
	Input io.ReadCloser
	// Output overrides the prompt output (stdout when nil).
	Output io.Writer
}

// manual asks the operator to flip power by hand and confirm.
// For benches without switchable power.
type manual struct {
	config ManualConfig
	log    zerolog.Logger

	mutex  sync.Mutex
	rl     *readline.Instance
	reader *bufio.Reader
}

// NewManual creates a power driver that prompts the operator for every
// operation.
func NewManual(config ManualConfig, log zerolog.Logger) (Protocol, error) {
	return &manual{
		config: config,
		log:    log.With().Str("component", "power-manual").Logger(),
	}, nil
}

// On asks the operator to switch power on.
func (d *manual) On(ctx context.Context) error {
	operationsTotal.WithLabelValues("manual", "on").Inc()
	if _, err := d.prompt(fmt.Sprintf("Switch power of '%s' on, then press enter: ", d.targetName())); err != nil {
		operationErrorsTotal.WithLabelValues("manual", "on").Inc()
		return maskAny(err)
	}
	return nil
}

// Off asks the operator to switch power off.
func (d *manual) Off(ctx context.Context) error {
	operationsTotal.WithLabelValues("manual", "off").Inc()
	if _, err := d.prompt(fmt.Sprintf("Switch power of '%s' off, then press enter: ", d.targetName())); err != nil {
		operationErrorsTotal.WithLabelValues("manual", "off").Inc()
		return maskAny(err)
	}
	return nil
}

// Cycle asks the operator to power cycle the target.
func (d *manual) Cycle(ctx context.Context) error {
	operationsTotal.WithLabelValues("manual", "cycle").Inc()
	if _, err := d.prompt(fmt.Sprintf("Power cycle '%s', then press enter: ", d.targetName())); err != nil {
		operationErrorsTotal.WithLabelValues("manual", "cycle").Inc()
		return maskAny(err)
	}
	return nil
}

// Get asks the operator for the current power state.
func (d *manual) Get(ctx context.Context) (bool, error) {
	operationsTotal.WithLabelValues("manual", "get").Inc()
	answer, err := d.prompt(fmt.Sprintf("Is power of '%s' on? [yes/no]: ", d.targetName()))
	if err != nil {
		operationErrorsTotal.WithLabelValues("manual", "get").Inc()
		return false, maskAny(err)
	}
	on, err := parseBool(answer)
	if err != nil {
		return false, maskAny(errors.Wrap(UnknownStateError, err.Error()))
	}
	return on, nil
}

// Capability returns the capability name of this driver.
func (d *manual) Capability() string {
	return Capability
}

// Close releases the prompt.
func (d *manual) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.rl != nil {
		d.rl.Close()
		d.rl = nil
	}
	return nil
}

// prompt shows the given prompt and reads one line.
// A supplied input stream is read directly, readline covers the
// interactive terminal case.
func (d *manual) prompt(prompt string) (string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.config.Input != nil {
		if _, err := fmt.Fprint(d.output(), prompt); err != nil {
			return "", maskAny(err)
		}
		if d.reader == nil {
			d.reader = bufio.NewReader(d.config.Input)
		}
		line, err := d.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", maskAny(errors.Wrap(err, "prompt failed"))
		}
		return strings.TrimSpace(line), nil
	}

	if d.rl == nil {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt,
			InterruptPrompt: "^C",
			Stdout:          d.output(),
		})
		if err != nil {
			return "", maskAny(errors.Wrap(err, "failed to create prompt"))
		}
		d.rl = rl
	} else {
		d.rl.SetPrompt(prompt)
	}
	line, err := d.rl.Readline()
	if err != nil {
		return "", maskAny(errors.Wrap(err, "prompt failed"))
	}
	return strings.TrimSpace(line), nil
}

func (d *manual) output() io.Writer {
	if d.config.Output != nil {
		return d.config.Output
	}
	return os.Stdout
}

func (d *manual) targetName() string {
	if d.config.TargetName != "" {
		return d.config.TargetName
	}
	return "target"
}
