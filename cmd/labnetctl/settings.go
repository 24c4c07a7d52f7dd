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
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/labnet/LabClient/pkg/coordinator"
)

// Settings keys. Values resolve as flag > environment > settings file >
// default.
const (
	settingCoordinator = "coordinator"
	settingEnvironment = "environment"
	settingScriptsDir  = "scripts_dir"
	settingVenvDir     = "venv_dir"
)

var settings = viper.New()

// initSettings loads the settings file and binds environment variables
// and flags.
func initSettings() error {
	return loadSettings(settings, configFlag, rootCmd.PersistentFlags())
}

func loadSettings(v *viper.Viper, configFile string, flags *pflag.FlagSet) error {
	v.SetDefault(settingCoordinator, coordinator.DefaultAddress)
	v.SetDefault(settingEnvironment, "")
	v.SetDefault(settingScriptsDir, "/opt/labnet/scripts")
	v.SetDefault(settingVenvDir, "/opt/labnet/venv")

	v.BindEnv(settingCoordinator, coordinator.CoordinatorEnv)
	v.BindEnv(settingEnvironment, "LABNET_ENV")
	v.BindEnv(settingScriptsDir, "LABNET_SCRIPTS_DIR")
	v.BindEnv(settingVenvDir, "LABNET_VENV_DIR")

	if flags != nil {
		if f := flags.Lookup("coordinator"); f != nil {
			v.BindPFlag(settingCoordinator, f)
		}
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
		return v.ReadInConfig()
	}
	v.SetConfigName("labnetctl")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "labnet"))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Running without a settings file is fine
	}
	return nil
}

func coordinatorAddress() string {
	return settings.GetString(settingCoordinator)
}

func environmentPath() string {
	return settings.GetString(settingEnvironment)
}

func scriptsDir() string {
	return settings.GetString(settingScriptsDir)
}

func venvDir() string {
	return settings.GetString(settingVenvDir)
}

// defaultSettingsPath returns the path "config init" writes to.
func defaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "labnet", "labnetctl.yaml"), nil
}

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Settings file helpers",
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if used := settings.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# settings file: %s\n", used)
			}
			all := settings.AllSettings()
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s: %v\n", k, all[k])
			}
			return nil
		},
	}
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the current values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFlag
			if path == "" {
				var err error
				path, err = defaultSettingsPath()
				if err != nil {
					return err
				}
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := settings.SafeWriteConfigAs(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", path)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
