package power

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

func TestExternalValidation(t *testing.T) {
	log := zerolog.Nop()
	_, err := NewExternal(ExternalConfig{OffCommand: []string{"true"}}, log)
	assert.True(t, model.IsValidation(err))
	_, err = NewExternal(ExternalConfig{OnCommand: []string{"true"}}, log)
	assert.True(t, model.IsValidation(err))
	_, err = NewExternal(ExternalConfig{OnCommand: []string{"true"}, OffCommand: []string{"true"}}, log)
	assert.NoError(t, err)
}

func TestExternalOnOff(t *testing.T) {
	ctx := context.Background()
	logFile := filepath.Join(t.TempDir(), "log")
	driver, err := NewExternal(ExternalConfig{
		OnCommand:  []string{"sh", "-c", "echo on >> " + logFile},
		OffCommand: []string{"sh", "-c", "echo off >> " + logFile},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	require.NoError(t, driver.Off(ctx))
	require.NoError(t, driver.On(ctx))
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "off\non\n", string(content))
}

func TestExternalCycleByToggle(t *testing.T) {
	ctx := context.Background()
	logFile := filepath.Join(t.TempDir(), "log")
	driver, err := NewExternal(ExternalConfig{
		OnCommand:  []string{"sh", "-c", "echo on >> " + logFile},
		OffCommand: []string{"sh", "-c", "echo off >> " + logFile},
		CycleDelay: time.Millisecond * 10,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	require.NoError(t, driver.Cycle(ctx))
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "off\non\n", string(content))
}

func TestExternalCycleCommand(t *testing.T) {
	ctx := context.Background()
	logFile := filepath.Join(t.TempDir(), "log")
	driver, err := NewExternal(ExternalConfig{
		OnCommand:    []string{"true"},
		OffCommand:   []string{"true"},
		CycleCommand: []string{"sh", "-c", "echo cycle >> " + logFile},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	require.NoError(t, driver.Cycle(ctx))
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "cycle\n", string(content))
}

func TestExternalGet(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()

	driver, err := NewExternal(ExternalConfig{
		OnCommand:  []string{"true"},
		OffCommand: []string{"true"},
		GetCommand: []string{"sh", "-c", "echo 1"},
	}, log)
	require.NoError(t, err)
	on, err := driver.Get(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	driver, err = NewExternal(ExternalConfig{
		OnCommand:  []string{"true"},
		OffCommand: []string{"true"},
		GetCommand: []string{"sh", "-c", "echo off"},
	}, log)
	require.NoError(t, err)
	on, err = driver.Get(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	driver, err = NewExternal(ExternalConfig{
		OnCommand:  []string{"true"},
		OffCommand: []string{"true"},
		GetCommand: []string{"sh", "-c", "echo bogus"},
	}, log)
	require.NoError(t, err)
	_, err = driver.Get(ctx)
	assert.True(t, IsUnknownState(err))

	driver, err = NewExternal(ExternalConfig{
		OnCommand:  []string{"true"},
		OffCommand: []string{"true"},
	}, log)
	require.NoError(t, err)
	_, err = driver.Get(ctx)
	assert.True(t, IsNotSupported(err))
}

func TestExternalCommandFailure(t *testing.T) {
	ctx := context.Background()
	driver, err := NewExternal(ExternalConfig{
		OnCommand:  []string{"sh", "-c", "echo broken; exit 3"},
		OffCommand: []string{"true"},
	}, zerolog.Nop())
	require.NoError(t, err)

	err = driver.On(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestExternalCapability(t *testing.T) {
	driver, err := NewExternal(ExternalConfig{
		OnCommand:  []string{"true"},
		OffCommand: []string{"true"},
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Capability, driver.Capability())
}
