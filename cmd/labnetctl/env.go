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
	"fmt"

	"github.com/spf13/cobra"
)

var (
	envCmd = &cobra.Command{
		Use:   "env",
		Short: "Inspect environment descriptions",
	}
	envPathFlag string
	envShowCmd  = &cobra.Command{
		Use:   "show",
		Short: "Show the targets and drivers of an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(envPathFlag)
			if err != nil {
				return err
			}
			defer env.Close()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Environment: %s\n", env.Path())
			for _, name := range env.TargetNames() {
				target, err := env.Target(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Target: %s\n", target.Name())
				if place := target.Place(); place != "" {
					fmt.Fprintf(out, "  Place: %s\n", place)
				}
				for _, d := range target.Drivers() {
					fmt.Fprintf(out, "  Driver: %s (%T)\n", d.Capability(), d)
				}
			}
			return nil
		},
	}
	envValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate an environment description",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(envPathFlag)
			if err != nil {
				return err
			}
			targetCount := len(env.TargetNames())
			if err := env.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Environment is valid, %d target(s)\n", targetCount)
			return nil
		},
	}
)

func init() {
	envCmd.PersistentFlags().StringVar(&envPathFlag, "env", "", "Path of the environment description, defaults to LABNET_ENV")

	envCmd.AddCommand(envShowCmd)
	envCmd.AddCommand(envValidateCmd)
	rootCmd.AddCommand(envCmd)
}
