package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

func TestKeyValuesFlag(t *testing.T) {
	f := newKeyValuesFlag()
	assert.Equal(t, "key=value", f.Type())
	assert.Empty(t, f.String())

	require.NoError(t, f.Set("soc=imx8"))
	require.NoError(t, f.Set("rack=r1"))
	assert.Equal(t, map[string]string{"soc": "imx8", "rack": "r1"}, f.values)
	assert.Equal(t, "rack=r1,soc=imx8", f.String())

	// Last value wins
	require.NoError(t, f.Set("soc=imx93"))
	assert.Equal(t, "imx93", f.values["soc"])
}

func TestKeyValuesFlagInvalid(t *testing.T) {
	f := newKeyValuesFlag()
	assert.True(t, model.IsValidation(f.Set("no-separator")))
	assert.True(t, model.IsValidation(f.Set("=value")))
	assert.Empty(t, f.values)
}
