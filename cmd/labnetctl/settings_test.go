package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/pkg/coordinator"
)

// isolateUserConfig keeps the user's own settings file out of tests.
func isolateUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeSettingsFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "labnetctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettingsDefaults(t *testing.T) {
	isolateUserConfig(t)
	v := viper.New()
	require.NoError(t, loadSettings(v, "", nil))
	assert.Equal(t, coordinator.DefaultAddress, v.GetString(settingCoordinator))
	assert.Equal(t, "/opt/labnet/scripts", v.GetString(settingScriptsDir))
	assert.Equal(t, "/opt/labnet/venv", v.GetString(settingVenvDir))
	assert.Empty(t, v.GetString(settingEnvironment))
}

func TestLoadSettingsFile(t *testing.T) {
	isolateUserConfig(t)
	path := writeSettingsFile(t, "coordinator: file.lab:20408\nenvironment: /lab/env.yaml\n")
	v := viper.New()
	require.NoError(t, loadSettings(v, path, nil))
	assert.Equal(t, "file.lab:20408", v.GetString(settingCoordinator))
	assert.Equal(t, "/lab/env.yaml", v.GetString(settingEnvironment))
	// Unset keys keep their defaults
	assert.Equal(t, "/opt/labnet/scripts", v.GetString(settingScriptsDir))
}

func TestLoadSettingsFileMissing(t *testing.T) {
	isolateUserConfig(t)
	v := viper.New()
	assert.Error(t, loadSettings(v, filepath.Join(t.TempDir(), "absent.yaml"), nil))
}

func TestLoadSettingsEnv(t *testing.T) {
	isolateUserConfig(t)
	path := writeSettingsFile(t, "coordinator: file.lab:20408\n")
	t.Setenv("LABNET_COORDINATOR", "env.lab:20408")
	t.Setenv("LABNET_ENV", "/lab/env.yaml")
	v := viper.New()
	require.NoError(t, loadSettings(v, path, nil))
	// Environment wins over the settings file
	assert.Equal(t, "env.lab:20408", v.GetString(settingCoordinator))
	assert.Equal(t, "/lab/env.yaml", v.GetString(settingEnvironment))
}

func TestLoadSettingsFlag(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("LABNET_COORDINATOR", "env.lab:20408")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("coordinator", "", "")
	require.NoError(t, flags.Set("coordinator", "flag.lab:20408"))
	v := viper.New()
	require.NoError(t, loadSettings(v, "", flags))
	// The flag wins over everything else
	assert.Equal(t, "flag.lab:20408", v.GetString(settingCoordinator))
}
