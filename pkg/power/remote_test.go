package power

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

// newPlacesServer serves a fixed set of places and resources on the
// coordinator API paths.
func newPlacesServer(t *testing.T, places []model.Place, resources []model.Resource) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/places", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(places)
	})
	mux.HandleFunc("/api/v1/resources", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resources)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRemoteExternalResource(t *testing.T) {
	ctx := context.Background()
	logFile := filepath.Join(t.TempDir(), "log")
	places := []model.Place{
		{
			Name:     "board-1",
			Acquired: "alice",
			Matches: []model.ResourceMatch{
				{Exporter: "rack1", Group: "main", Class: "*"},
			},
		},
	}
	resources := []model.Resource{
		{
			Path:  model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
			Class: ResourceClassExternal,
			Params: map[string]model.ParamValue{
				"on_cmd": model.ArrayParam(model.StringParam("sh"), model.StringParam("-c"),
					model.StringParam("echo on >> "+logFile)),
				"off_cmd": model.ArrayParam(model.StringParam("sh"), model.StringParam("-c"),
					model.StringParam("echo off >> "+logFile)),
				"get_cmd": model.ArrayParam(model.StringParam("sh"), model.StringParam("-c"),
					model.StringParam("echo 1")),
			},
			Avail: true,
		},
	}
	server := newPlacesServer(t, places, resources)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "board-1"}, zerolog.Nop())
	require.NoError(t, err)
	defer driver.Close()

	require.NoError(t, driver.Off(ctx))
	require.NoError(t, driver.On(ctx))
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "off\non\n", string(content))

	on, err := driver.Get(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestRemotePlaceByAlias(t *testing.T) {
	ctx := context.Background()
	logFile := filepath.Join(t.TempDir(), "log")
	places := []model.Place{
		{
			Name:     "board-1",
			Aliases:  []string{"bench"},
			Acquired: "alice",
			AcquiredResources: []model.ResourcePath{
				{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
			},
		},
	}
	resources := []model.Resource{
		{
			Path:  model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
			Class: ResourceClassExternal,
			Params: map[string]model.ParamValue{
				"on_cmd": model.ArrayParam(model.StringParam("true")),
				"off_cmd": model.ArrayParam(model.StringParam("sh"), model.StringParam("-c"),
					model.StringParam("echo off >> "+logFile)),
			},
			Avail: true,
		},
	}
	server := newPlacesServer(t, places, resources)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "bench"}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, driver.Off(ctx))
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "off\n", string(content))
}

func TestRemotePlaceNotFound(t *testing.T) {
	ctx := context.Background()
	server := newPlacesServer(t, nil, nil)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "missing"}, zerolog.Nop())
	require.NoError(t, err)

	err = driver.On(ctx)
	assert.True(t, model.IsNotFound(err))
}

func TestRemotePlaceNotAcquired(t *testing.T) {
	ctx := context.Background()
	places := []model.Place{{Name: "board-1"}}
	server := newPlacesServer(t, places, nil)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "board-1"}, zerolog.Nop())
	require.NoError(t, err)

	err = driver.On(ctx)
	assert.True(t, model.IsNotAcquired(err))
}

func TestRemoteNoPowerResource(t *testing.T) {
	ctx := context.Background()
	places := []model.Place{{Name: "board-1", Acquired: "alice"}}
	server := newPlacesServer(t, places, nil)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "board-1"}, zerolog.Nop())
	require.NoError(t, err)

	err = driver.On(ctx)
	assert.True(t, model.IsNotFound(err))
}

func TestRemoteResourceUnavailable(t *testing.T) {
	ctx := context.Background()
	places := []model.Place{
		{
			Name:     "board-1",
			Acquired: "alice",
			AcquiredResources: []model.ResourcePath{
				{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
			},
		},
	}
	resources := []model.Resource{
		{
			Path:  model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
			Class: ResourceClassExternal,
		},
	}
	server := newPlacesServer(t, places, resources)

	driver, err := NewRemote(RemoteConfig{Coordinator: server.URL, Place: "board-1"}, zerolog.Nop())
	require.NoError(t, err)

	err = driver.On(ctx)
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
	assert.Contains(t, err.Error(), "not available")
}

func TestRemoteValidation(t *testing.T) {
	_, err := NewRemote(RemoteConfig{}, zerolog.Nop())
	assert.True(t, model.IsValidation(err))
}
