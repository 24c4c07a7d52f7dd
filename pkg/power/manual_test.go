package power

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualConfirm(t *testing.T) {
	ctx := context.Background()
	output := &bytes.Buffer{}
	driver, err := NewManual(ManualConfig{
		TargetName: "board",
		Input:      io.NopCloser(strings.NewReader("\n\n\n")),
		Output:     output,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	require.NoError(t, driver.On(ctx))
	require.NoError(t, driver.Off(ctx))
	require.NoError(t, driver.Cycle(ctx))
	assert.Contains(t, output.String(), "Switch power of 'board' on")
	assert.Contains(t, output.String(), "Switch power of 'board' off")
	assert.Contains(t, output.String(), "Power cycle 'board'")
}

func TestManualGet(t *testing.T) {
	ctx := context.Background()
	driver, err := NewManual(ManualConfig{
		TargetName: "board",
		Input:      io.NopCloser(strings.NewReader("yes\nno\nmaybe\n")),
		Output:     &bytes.Buffer{},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	on, err := driver.Get(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = driver.Get(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = driver.Get(ctx)
	assert.True(t, IsUnknownState(err))
}

func TestManualInputGone(t *testing.T) {
	ctx := context.Background()
	driver, err := NewManual(ManualConfig{
		Input:  io.NopCloser(strings.NewReader("")),
		Output: &bytes.Buffer{},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	assert.Error(t, driver.On(ctx))
}
