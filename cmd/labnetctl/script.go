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
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/pkg/scripts"
)

// openScripts scans the configured scripts directory.
func openScripts() (*scripts.Scripts, error) {
	dir := scriptDirFlag
	if dir == "" {
		dir = scriptsDir()
	}
	return scripts.New(cliLog, dir)
}

// scriptEnv builds the execution environment from the settings, the
// process environment and the command line overrides.
func scriptEnv() scripts.Env {
	env := scripts.NewEnv()
	env[scripts.EnvCoordinator] = coordinatorAddress()
	if path := environmentPath(); path != "" {
		env[scripts.EnvEnvironment] = path
	}
	if scriptPlaceFlag != "" {
		env[scripts.EnvPlace] = scriptPlaceFlag
	}
	for k, v := range scriptEnvVarsFlag.values {
		env[k] = v
	}
	return env
}

var (
	scriptCmd = &cobra.Command{
		Use:   "script",
		Short: "Run lab scripts",
	}
	scriptDirFlag     string
	scriptVenvFlag    string
	scriptPlaceFlag   string
	scriptEnvVarsFlag = newKeyValuesFlag()
	scriptListCmd     = &cobra.Command{
		Use:   "list",
		Short: "List the scripts in the scripts directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openScripts()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE")
			for _, script := range s.List() {
				fmt.Fprintf(w, "%s\t%s\n", script.Name(), script.Type)
			}
			return w.Flush()
		},
	}
	scriptRunCmd = &cobra.Command{
		Use:   "run <name>",
		Short: "Run a script from the scripts directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openScripts()
			if err != nil {
				return err
			}
			script, err := s.Get(args[0])
			if err != nil {
				return err
			}
			venv := scriptVenvFlag
			if venv == "" {
				venv = venvDir()
			}
			if script.Type == scripts.ScriptTypePython {
				if err := scripts.ValidateVenvDir(venv); err != nil {
					return err
				}
			}
			result, err := script.Execute(cmd.Context(), venv, scriptEnv())
			if err != nil {
				return err
			}
			io.WriteString(cmd.OutOrStdout(), result.Stdout)
			io.WriteString(cmd.ErrOrStderr(), result.Stderr)
			if result.ExitCode != 0 {
				return errors.Errorf("script '%s' exited with code %d", script.Name(), result.ExitCode)
			}
			return nil
		},
	}
)

func init() {
	scriptCmd.PersistentFlags().StringVar(&scriptDirFlag, "dir", "", "Directory holding the scripts")
	scriptRunCmd.Flags().StringVar(&scriptVenvFlag, "venv", "", "Python virtual environment used for python scripts")
	scriptRunCmd.Flags().StringVar(&scriptPlaceFlag, "place", "", "Place name passed to the script as LABNET_PLACE")
	scriptRunCmd.Flags().Var(scriptEnvVarsFlag, "env-var", "Extra environment variable passed to the script, repeatable")

	scriptCmd.AddCommand(scriptListCmd)
	scriptCmd.AddCommand(scriptRunCmd)
	rootCmd.AddCommand(scriptCmd)
}
