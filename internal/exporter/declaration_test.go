package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

func writeDeclaration(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDeclaration(t *testing.T) {
	path := writeDeclaration(t, `
name: rack1
coordinator: labhost:20408
groups:
  main:
    resources:
      - name: power
        cls: ExternalPower
        params:
          on_cmd: ["pdu", "on"]
          off_cmd: ["pdu", "off"]
      - name: plug
        cls: TasmotaPowerPort
        params:
          broker: labhost:1883
          topic: tasmota_A1
        extra:
          location: shelf-3
`)
	decl, err := LoadDeclaration(path)
	require.NoError(t, err)
	assert.Equal(t, "rack1", decl.Name)
	assert.Equal(t, "labhost:20408", decl.Coordinator)
	group, found := decl.Groups["main"]
	require.True(t, found)
	require.Len(t, group.Resources, 2)
	assert.Equal(t, "power", group.Resources[0].Name)
	assert.Equal(t, "ExternalPower", group.Resources[0].Class)
	onCmd, found := group.Resources[0].Params["on_cmd"]
	require.True(t, found)
	arr, ok := onCmd.AsArray()
	require.True(t, ok)
	assert.Len(t, arr, 2)
	location, found := group.Resources[1].Extra["location"]
	require.True(t, found)
	s, ok := location.AsString()
	require.True(t, ok)
	assert.Equal(t, "shelf-3", s)
}

func TestLoadDeclarationInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no-groups", `name: rack1`},
		{"empty-group", "groups:\n  main: {}\n"},
		{"resource-without-name", "groups:\n  main:\n    resources:\n      - cls: ExternalPower\n"},
		{"resource-without-cls", "groups:\n  main:\n    resources:\n      - name: power\n"},
		{"duplicate-resource", "groups:\n  main:\n    resources:\n      - name: power\n        cls: A\n      - name: power\n        cls: B\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadDeclaration(writeDeclaration(t, test.content))
			assert.True(t, model.IsValidation(err), "%v", err)
		})
	}
}

func TestLoadDeclarationMissingFile(t *testing.T) {
	_, err := LoadDeclaration(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
