package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
)

// newCoordinatorServer fakes enough of a coordinator for a manager
// session: a reservation list endpoint and a client stream that serves
// one place before confirming the initial sync.
func newCoordinatorServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reservations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.Reservation{{
			Owner:   "host/user",
			Token:   "tok-1",
			State:   model.ReservationStateWaiting,
			Filters: map[string]model.Filter{"main": {"board": "devkit"}},
		}})
	})
	mux.HandleFunc("/api/v1/stream/client", func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for i := 0; i < 3; i++ {
			var msg model.ClientInMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
		}
		var sync model.ClientInMessage
		if err := conn.ReadJSON(&sync); err != nil {
			return
		}
		conn.WriteJSON(model.ClientOutMessage{
			Type: model.MessageTypeUpdates,
			Updates: []model.Update{
				{Kind: model.UpdateKindPlace, Place: &model.Place{Name: "board-1"}},
				{Kind: model.UpdateKindResource, Resource: &model.Resource{
					Path:  model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "power"},
					Class: "NetworkPowerPort",
					Avail: true,
				}},
			},
		})
		conn.WriteJSON(model.ClientOutMessage{
			Type:   model.MessageTypeUpdates,
			SyncID: sync.SyncID,
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	return httptest.NewServer(mux)
}

func TestManagerSession(t *testing.T) {
	t.Setenv(HostNameEnv, "testhost")
	t.Setenv(UserNameEnv, "tester")

	server := newCoordinatorServer(t)
	defer server.Close()

	m, err := NewManager(ManagerConfig{
		Address: server.URL,
	}, ManagerDependencies{
		Log: zerolog.Nop(),
	})
	require.NoError(t, err)

	connections := make(chan ConnectionEvent, 8)
	cancelConn := m.RegisterConnectionReceiver(func(e ConnectionEvent) error {
		connections <- e
		return nil
	})
	defer cancelConn()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	select {
	case evt := <-connections:
		assert.True(t, evt.Connected)
	case <-time.After(5 * time.Second):
		t.Fatal("no connection event")
	}

	assert.True(t, m.Connected())

	place, err := m.GetPlace("board-1")
	require.NoError(t, err)
	assert.Equal(t, "board-1", place.Name)
	_, err = m.GetPlace("board-9")
	assert.True(t, model.IsNotFound(err))

	places := m.GetPlaces()
	require.Len(t, places, 1)

	resources := m.GetResources()
	require.Len(t, resources, 1)
	assert.Equal(t, "rack1/main/power", resources[0].Path.String())

	reservations := m.GetReservations()
	require.Len(t, reservations, 1)
	assert.Equal(t, "tok-1", reservations[0].Token)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	select {
	case evt := <-connections:
		assert.False(t, evt.Connected)
	case <-time.After(5 * time.Second):
		t.Fatal("no disconnect event")
	}
}

func TestManagerPlaceEvents(t *testing.T) {
	t.Setenv(HostNameEnv, "testhost")
	t.Setenv(UserNameEnv, "tester")

	server := newCoordinatorServer(t)
	defer server.Close()

	m, err := NewManager(ManagerConfig{Address: server.URL}, ManagerDependencies{Log: zerolog.Nop()})
	require.NoError(t, err)

	placeEvents := make(chan PlaceEvent, 8)
	cancelPlaces := m.RegisterPlaceReceiver(func(e PlaceEvent) error {
		placeEvents <- e
		return nil
	})
	defer cancelPlaces()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case evt := <-placeEvents:
		assert.Equal(t, "board-1", evt.Name)
		assert.False(t, evt.Deleted)
	case <-time.After(5 * time.Second):
		t.Fatal("no place event")
	}
}

func TestManagerRedials(t *testing.T) {
	t.Setenv(HostNameEnv, "testhost")
	t.Setenv(UserNameEnv, "tester")

	dials := make(chan struct{}, 16)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/stream/client", func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// Drop the session right away.
		conn.Close()
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	m, err := NewManager(ManagerConfig{
		Address:        server.URL,
		RedialInterval: 10 * time.Millisecond,
	}, ManagerDependencies{Log: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-dials:
		case <-time.After(5 * time.Second):
			t.Fatal("no redial")
		}
	}
	assert.False(t, m.Connected())
}
