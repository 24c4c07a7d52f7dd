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

package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/environment"
	"github.com/labnet/LabClient/pkg/power"
)

// openEnvironment loads the environment at the given path, falling back
// to the configured default path.
func openEnvironment(path string) (*environment.Environment, error) {
	if path == "" {
		path = environmentPath()
	}
	if path == "" {
		return nil, errors.Wrap(model.ValidationError, "no environment configured, set --env or LABNET_ENV")
	}
	return environment.New(cliLog, path)
}

// runPowerAction loads the environment, looks up the power driver of
// the given target and runs the action on it.
func runPowerAction(ctx context.Context, targetName string, action func(context.Context, power.Protocol) error) error {
	env, err := openEnvironment(powerEnvFlag)
	if err != nil {
		return err
	}
	defer env.Close()
	target, err := env.Target(targetName)
	if err != nil {
		return err
	}
	protocol, err := target.PowerProtocol()
	if err != nil {
		return err
	}
	return action(ctx, protocol)
}

var (
	powerCmd = &cobra.Command{
		Use:   "power",
		Short: "Control power of environment targets",
	}
	powerEnvFlag string
	powerOnCmd   = &cobra.Command{
		Use:   "on <target>",
		Short: "Switch power of a target on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPowerAction(cmd.Context(), args[0], func(ctx context.Context, p power.Protocol) error {
				return p.On(ctx)
			})
		},
	}
	powerOffCmd = &cobra.Command{
		Use:   "off <target>",
		Short: "Switch power of a target off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPowerAction(cmd.Context(), args[0], func(ctx context.Context, p power.Protocol) error {
				return p.Off(ctx)
			})
		},
	}
	powerCycleCmd = &cobra.Command{
		Use:   "cycle <target>",
		Short: "Power cycle a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPowerAction(cmd.Context(), args[0], func(ctx context.Context, p power.Protocol) error {
				return p.Cycle(ctx)
			})
		},
	}
	powerStatusCmd = &cobra.Command{
		Use:   "status <target>",
		Short: "Show the power state of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPowerAction(cmd.Context(), args[0], func(ctx context.Context, p power.Protocol) error {
				on, err := p.Get(ctx)
				if err != nil {
					return err
				}
				if on {
					fmt.Fprintln(cmd.OutOrStdout(), "on")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "off")
				}
				return nil
			})
		},
	}
)

func init() {
	powerCmd.PersistentFlags().StringVar(&powerEnvFlag, "env", "", "Path of the environment description, defaults to LABNET_ENV")

	powerCmd.AddCommand(powerOnCmd)
	powerCmd.AddCommand(powerOffCmd)
	powerCmd.AddCommand(powerCycleCmd)
	powerCmd.AddCommand(powerStatusCmd)
	rootCmd.AddCommand(powerCmd)
}
