package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiWriterAppendRemove(t *testing.T) {
	var a, b bytes.Buffer
	mw := NewMultiWriter(&a)

	n, err := mw.Write([]byte("one\n"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	mw.Append(&b)
	_, err = mw.Write([]byte("two\n"))
	assert.NoError(t, err)

	mw.Remove(&a)
	_, err = mw.Write([]byte("three\n"))
	assert.NoError(t, err)

	assert.Equal(t, "one\ntwo\n", a.String())
	assert.Equal(t, "two\nthree\n", b.String())
}

func TestMultiWriterRemoveUnknown(t *testing.T) {
	var a, b bytes.Buffer
	mw := NewMultiWriter(&a)
	mw.Remove(&b)
	_, err := mw.Write([]byte("still works\n"))
	assert.NoError(t, err)
	assert.Equal(t, "still works\n", a.String())
}

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(&buf, "warn")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")

	_, err = Setup(&buf, "chatty")
	assert.Error(t, err)
}
