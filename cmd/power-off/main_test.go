package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

// writeEnv writes an environment description file and returns its path.
func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunWithoutEnvironmentVar(t *testing.T) {
	t.Setenv(environmentVar, "")
	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), environmentVar)
}

func TestRunBadPath(t *testing.T) {
	t.Setenv(environmentVar, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, run(context.Background()))
}

func TestRunSwitchesMainOff(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "log")
	path := writeEnv(t, strings.ReplaceAll(`
targets:
  main:
    drivers:
      - type: external
        on_cmd: ["sh", "-c", "echo on >> LOG"]
        off_cmd: ["sh", "-c", "echo off >> LOG"]
`, "LOG", logFile))
	t.Setenv(environmentVar, path)

	require.NoError(t, run(context.Background()))

	// Exactly one off call, no other commands
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "off\n", string(content))
}

func TestRunUnknownTarget(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "log")
	path := writeEnv(t, strings.ReplaceAll(`
targets:
  board-2:
    drivers:
      - type: external
        on_cmd: ["sh", "-c", "echo on >> LOG"]
        off_cmd: ["sh", "-c", "echo off >> LOG"]
`, "LOG", logFile))
	t.Setenv(environmentVar, path)

	err := run(context.Background())
	assert.True(t, model.IsNotFound(err), "%v", err)

	// The driver must not have run
	_, statErr := os.Stat(logFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunTargetWithoutPowerDriver(t *testing.T) {
	path := writeEnv(t, `
targets:
  main:
    place: board-1
`)
	t.Setenv(environmentVar, path)

	err := run(context.Background())
	assert.True(t, model.IsNotFound(err), "%v", err)
}

func TestRunOffFailure(t *testing.T) {
	path := writeEnv(t, `
targets:
  main:
    drivers:
      - type: external
        on_cmd: ["true"]
        off_cmd: ["false"]
`)
	t.Setenv(environmentVar, path)

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}
