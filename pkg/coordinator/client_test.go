package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

func TestApiBaseURL(t *testing.T) {
	base, err := apiBaseURL("coord.lab:1234")
	require.NoError(t, err)
	assert.Equal(t, "http://coord.lab:1234/api/v1", base)

	base, err = apiBaseURL("https://coord.lab")
	require.NoError(t, err)
	assert.Equal(t, "https://coord.lab/api/v1", base)

	_, err = apiBaseURL("")
	assert.True(t, model.IsValidation(err))
	_, err = apiBaseURL("ftp://coord.lab")
	assert.True(t, model.IsValidation(err))
}

func TestStreamURL(t *testing.T) {
	u, err := streamURL("coord.lab:1234", "client")
	require.NoError(t, err)
	assert.Equal(t, "ws://coord.lab:1234/api/v1/stream/client", u)

	u, err = streamURL("https://coord.lab", "exporter")
	require.NoError(t, err)
	assert.Equal(t, "wss://coord.lab/api/v1/stream/exporter", u)
}

func TestClientGetPlaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/places", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]model.Place{
			{Name: "board-10"},
			{Name: "board-2"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	places, err := c.GetPlaces(context.Background())
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "board-2", places[0].Name)
	assert.Equal(t, "board-10", places[1].Name)
}

func TestClientPlaceOps(t *testing.T) {
	type call struct {
		Method string
		Path   string
		Body   map[string]interface{}
	}
	var calls []call
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		c := call{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&c.Body)
		}
		calls = append(calls, c)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.AddPlace(ctx, "board-1"))
	require.NoError(t, c.AddPlaceAlias(ctx, "board-1", "devkit"))
	require.NoError(t, c.SetPlaceTags(ctx, "board-1", map[string]string{"soc": "imx8"}))
	require.NoError(t, c.AddPlaceMatch(ctx, "board-1", "rack1/main/*", ""))
	require.NoError(t, c.AcquirePlace(ctx, "board-1"))
	require.NoError(t, c.ReleasePlace(ctx, "board-1", "host/other"))
	require.NoError(t, c.AllowPlace(ctx, "board-1", "host/friend"))
	require.NoError(t, c.DeletePlace(ctx, "board-1"))

	require.Len(t, calls, 8)
	assert.Equal(t, call{http.MethodPost, "/api/v1/places", map[string]interface{}{"name": "board-1"}}, calls[0])
	assert.Equal(t, call{http.MethodPost, "/api/v1/places/board-1/aliases", map[string]interface{}{"alias": "devkit"}}, calls[1])
	assert.Equal(t, "/api/v1/places/board-1/tags", calls[2].Path)
	assert.Equal(t, call{http.MethodPost, "/api/v1/places/board-1/matches", map[string]interface{}{"pattern": "rack1/main/*"}}, calls[3])
	assert.Equal(t, call{http.MethodPost, "/api/v1/places/board-1/acquire", nil}, calls[4])
	assert.Equal(t, call{http.MethodPost, "/api/v1/places/board-1/release", map[string]interface{}{"from_user": "host/other"}}, calls[5])
	assert.Equal(t, call{http.MethodPost, "/api/v1/places/board-1/allow", map[string]interface{}{"user": "host/friend"}}, calls[6])
	assert.Equal(t, call{http.MethodDelete, "/api/v1/places/board-1", nil}, calls[7])
}

func TestClientAddPlaceMatchValidatesPattern(t *testing.T) {
	c, err := NewClient("coord.lab:1234")
	require.NoError(t, err)
	err = c.AddPlaceMatch(context.Background(), "board-1", "not-a-pattern", "")
	assert.True(t, model.IsValidation(err))
}

func TestClientReservations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reservations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body struct {
				Filters map[string]model.Filter `json:"filters"`
				Prio    float64                 `json:"prio"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "devkit", body.Filters["main"]["board"])
			json.NewEncoder(w).Encode(model.Reservation{
				Owner:   "host/user",
				Token:   "tok-1",
				State:   model.ReservationStateWaiting,
				Filters: body.Filters,
			})
		case http.MethodGet:
			json.NewEncoder(w).Encode([]model.Reservation{{Token: "tok-1"}})
		}
	})
	mux.HandleFunc("/api/v1/reservations/tok-1/poll", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(model.Reservation{
			Owner:       "host/user",
			Token:       "tok-1",
			State:       model.ReservationStateAllocated,
			Filters:     map[string]model.Filter{"main": {"board": "devkit"}},
			Allocations: map[string][]string{"main": {"board-1"}},
		})
	})
	mux.HandleFunc("/api/v1/reservations/tok-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.CreateReservation(ctx, map[string]model.Filter{"main": {"board": "devkit"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, model.ReservationStateWaiting, res.State)

	res, err = c.PollReservation(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStateAllocated, res.State)
	name, found := res.MainAllocation()
	assert.True(t, found)
	assert.Equal(t, "board-1", name)

	list, err := c.GetReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.CancelReservation(ctx, "tok-1"))
}

func TestClientErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/places/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "place 'missing' not found"})
	})
	mux.HandleFunc("/api/v1/places", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "place 'board-1' already exists"})
	})
	mux.HandleFunc("/api/v1/resources", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.GetPlace(ctx, "missing")
	assert.True(t, model.IsNotFound(err))
	assert.Contains(t, err.Error(), "place 'missing' not found")

	err = c.AddPlace(ctx, "board-1")
	assert.True(t, model.IsAlreadyExists(err))

	_, err = c.GetResources(ctx)
	se, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Message)
}
