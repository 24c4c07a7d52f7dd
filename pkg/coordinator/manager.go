// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

const (
	defaultRefreshInterval = time.Second * 30
	defaultRedialInterval  = time.Second * 5
)

// ManagerConfig holds the configuration of a Manager.
type ManagerConfig struct {
	// Address of the coordinator API ("host:port").
	Address string
	// RefreshInterval between reservation list refreshes.
	// Defaults to 30s when zero.
	RefreshInterval time.Duration
	// RedialInterval between connection attempts.
	// Defaults to 5s when zero.
	RedialInterval time.Duration
}

// ManagerDependencies holds the dependencies of a Manager.
type ManagerDependencies struct {
	Log zerolog.Logger
}

// ConnectionEvent reports a connection state change.
type ConnectionEvent struct {
	Connected bool
	Address   string
	// Err carries the reason when the connection was lost.
	Err error
}

// PlaceEvent reports a changed or deleted place.
type PlaceEvent struct {
	Name    string
	Place   model.Place
	Deleted bool
}

// ResourceEvent reports a changed or deleted resource.
type ResourceEvent struct {
	Path     model.ResourcePath
	Resource model.Resource
	Deleted  bool
}

// ReservationsEvent reports a refreshed reservation list.
type ReservationsEvent struct {
	Reservations []model.Reservation
}

// SyncEvent reports a completed sync round trip.
type SyncEvent struct {
	SyncID uint64
}

// Manager maintains a live view of coordinator state.
// It reconnects until its context is canceled and publishes change
// events to registered receivers.
type Manager interface {
	// Run the manager until the given context is canceled.
	Run(ctx context.Context) error

	// Client returns the unary API client of the manager.
	Client() *Client
	// Connected returns true while a stream session is live and synced.
	Connected() bool
	// GetPlaces returns the known places, sorted by name.
	GetPlaces() []model.Place
	// GetPlace returns the place with given name or alias.
	GetPlace(name string) (model.Place, error)
	// GetResources returns the known resources, sorted by path.
	GetResources() []model.Resource
	// GetReservations returns the reservations of the last refresh.
	GetReservations() []model.Reservation
	// TriggerSync requests a sync round trip on the live session.
	TriggerSync()
	// RefreshReservations fetches the reservation list now.
	RefreshReservations(ctx context.Context) error

	RegisterConnectionReceiver(cb func(ConnectionEvent) error) context.CancelFunc
	RegisterPlaceReceiver(cb func(PlaceEvent) error) context.CancelFunc
	RegisterResourceReceiver(cb func(ResourceEvent) error) context.CancelFunc
	RegisterReservationsReceiver(cb func(ReservationsEvent) error) context.CancelFunc
	RegisterSyncReceiver(cb func(SyncEvent) error) context.CancelFunc
}

type manager struct {
	ManagerConfig
	ManagerDependencies

	client *Client

	mutex        sync.RWMutex
	connected    bool
	places       map[string]model.Place
	resources    map[string]model.Resource
	reservations []model.Reservation

	connectionEvents  *pubsub.PubSub
	placeEvents       *pubsub.PubSub
	resourceEvents    *pubsub.PubSub
	reservationEvents *pubsub.PubSub
	syncEvents        *pubsub.PubSub

	syncRequests chan struct{}
}

// NewManager creates a Manager with given config & dependencies.
func NewManager(conf ManagerConfig, deps ManagerDependencies) (Manager, error) {
	conf.Address = AddressOrDefault(conf.Address)
	if conf.RefreshInterval == 0 {
		conf.RefreshInterval = defaultRefreshInterval
	}
	if conf.RedialInterval == 0 {
		conf.RedialInterval = defaultRedialInterval
	}
	deps.Log = deps.Log.With().Str("component", "coordinator-manager").Logger()
	client, err := NewClient(conf.Address)
	if err != nil {
		return nil, maskAny(err)
	}
	return &manager{
		ManagerConfig:       conf,
		ManagerDependencies: deps,
		client:              client,
		places:              make(map[string]model.Place),
		resources:           make(map[string]model.Resource),
		connectionEvents:    pubsub.New(),
		placeEvents:         pubsub.New(),
		resourceEvents:      pubsub.New(),
		reservationEvents:   pubsub.New(),
		syncEvents:          pubsub.New(),
		syncRequests:        make(chan struct{}, 1),
	}, nil
}

// Run the manager until the given context is canceled.
func (m *manager) Run(ctx context.Context) error {
	log := m.Log
	for {
		if err := m.runSession(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Coordinator session ended")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.RedialInterval):
			// Retry
		}
	}
}

// runSession dials one session and consumes it until it fails or the
// context is canceled.
func (m *manager) runSession(ctx context.Context) error {
	log := m.Log
	session, err := DialClientSession(ctx, m.Address, log)
	if err != nil {
		return maskAny(err)
	}
	defer session.Close()
	defer m.setConnected(false, nil)

	// The connection only counts once the initial snapshot is in.
	initialSync, err := session.Sync()
	if err != nil {
		return maskAny(err)
	}

	// Reservations are not streamed, fetch them on a fixed interval.
	if err := m.RefreshReservations(ctx); err != nil {
		return maskAny(err)
	}
	refresh := time.NewTicker(m.RefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case msg, ok := <-session.Updates():
			if !ok {
				return maskAny(session.Err())
			}
			m.applyUpdates(msg.Updates)
			if msg.SyncID != 0 {
				if initialSync != 0 && msg.SyncID >= initialSync {
					initialSync = 0
					m.setConnected(true, nil)
					log.Debug().Msg("Initial snapshot received")
				}
				m.syncEvents.Pub(SyncEvent{SyncID: msg.SyncID})
			}
		case <-m.syncRequests:
			if _, err := session.Sync(); err != nil {
				return maskAny(err)
			}
		case <-refresh.C:
			if err := m.RefreshReservations(ctx); err != nil {
				return maskAny(err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Client returns the unary API client of the manager.
func (m *manager) Client() *Client {
	return m.client
}

// Connected returns true while a stream session is live and synced.
func (m *manager) Connected() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.connected
}

// GetPlaces returns the known places, sorted by name.
func (m *manager) GetPlaces() []model.Place {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make([]model.Place, 0, len(m.places))
	for _, p := range m.places {
		result = append(result, p)
	}
	model.SortPlaces(result)
	return result
}

// GetPlace returns the place with given name or alias.
func (m *manager) GetPlace(name string) (model.Place, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if p, found := m.places[name]; found {
		return p, nil
	}
	for _, p := range m.places {
		if p.HasName(name) {
			return p, nil
		}
	}
	return model.Place{}, maskAny(errors.Wrapf(model.NotFoundError, "place '%s'", name))
}

// GetResources returns the known resources, sorted by path.
func (m *manager) GetResources() []model.Resource {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make([]model.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		result = append(result, r)
	}
	model.SortResources(result)
	return result
}

// GetReservations returns the reservations of the last refresh.
func (m *manager) GetReservations() []model.Reservation {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make([]model.Reservation, len(m.reservations))
	copy(result, m.reservations)
	return result
}

// TriggerSync requests a sync round trip on the live session.
func (m *manager) TriggerSync() {
	select {
	case m.syncRequests <- struct{}{}:
	default:
		// A sync is already pending
	}
}

// RefreshReservations fetches the reservation list now.
func (m *manager) RefreshReservations(ctx context.Context) error {
	list, err := m.client.GetReservations(ctx)
	if err != nil {
		return maskAny(err)
	}
	reservationRefreshesTotal.Inc()
	m.mutex.Lock()
	m.reservations = list
	m.mutex.Unlock()
	m.reservationEvents.Pub(ReservationsEvent{Reservations: list})
	return nil
}

// applyUpdates folds the given updates into the cached state and
// publishes change events.
func (m *manager) applyUpdates(updates []model.Update) {
	log := m.Log
	var events []interface{}
	m.mutex.Lock()
	for _, u := range updates {
		switch u.Kind {
		case model.UpdateKindPlace:
			if u.Place == nil {
				continue
			}
			m.places[u.Place.Name] = *u.Place
			events = append(events, PlaceEvent{Name: u.Place.Name, Place: *u.Place})
		case model.UpdateKindPlaceDeleted:
			delete(m.places, u.PlaceName)
			events = append(events, PlaceEvent{Name: u.PlaceName, Deleted: true})
		case model.UpdateKindResource:
			if u.Resource == nil {
				continue
			}
			m.resources[u.Resource.Path.String()] = *u.Resource
			events = append(events, ResourceEvent{Path: u.Resource.Path, Resource: *u.Resource})
		case model.UpdateKindResourceDeleted:
			if u.Path == nil {
				continue
			}
			delete(m.resources, u.Path.String())
			events = append(events, ResourceEvent{Path: *u.Path, Deleted: true})
		default:
			log.Warn().Str("kind", u.Kind).Msg("Unknown update kind")
		}
	}
	m.mutex.Unlock()

	// Publish outside the lock, receivers may call back into the manager.
	for _, evt := range events {
		switch x := evt.(type) {
		case PlaceEvent:
			m.placeEvents.Pub(x)
		case ResourceEvent:
			m.resourceEvents.Pub(x)
		}
	}
}

// setConnected records the connection state and publishes a change
// event when it flips.
func (m *manager) setConnected(connected bool, err error) {
	m.mutex.Lock()
	changed := m.connected != connected
	m.connected = connected
	m.mutex.Unlock()
	if !changed {
		return
	}
	if connected {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
	m.connectionEvents.Pub(ConnectionEvent{
		Connected: connected,
		Address:   m.Address,
		Err:       err,
	})
}

func (m *manager) RegisterConnectionReceiver(cb func(ConnectionEvent) error) context.CancelFunc {
	wcb := func(x ConnectionEvent) {
		if err := cb(x); err != nil {
			m.Log.Warn().Err(err).Msg("Connection event processing error")
		}
	}
	m.connectionEvents.Sub(wcb)
	return func() {
		m.connectionEvents.Leave(wcb)
	}
}

func (m *manager) RegisterPlaceReceiver(cb func(PlaceEvent) error) context.CancelFunc {
	wcb := func(x PlaceEvent) {
		if err := cb(x); err != nil {
			m.Log.Warn().Err(err).Msg("Place event processing error")
		}
	}
	m.placeEvents.Sub(wcb)
	return func() {
		m.placeEvents.Leave(wcb)
	}
}

func (m *manager) RegisterResourceReceiver(cb func(ResourceEvent) error) context.CancelFunc {
	wcb := func(x ResourceEvent) {
		if err := cb(x); err != nil {
			m.Log.Warn().Err(err).Msg("Resource event processing error")
		}
	}
	m.resourceEvents.Sub(wcb)
	return func() {
		m.resourceEvents.Leave(wcb)
	}
}

func (m *manager) RegisterReservationsReceiver(cb func(ReservationsEvent) error) context.CancelFunc {
	wcb := func(x ReservationsEvent) {
		if err := cb(x); err != nil {
			m.Log.Warn().Err(err).Msg("Reservation event processing error")
		}
	}
	m.reservationEvents.Sub(wcb)
	return func() {
		m.reservationEvents.Leave(wcb)
	}
}

func (m *manager) RegisterSyncReceiver(cb func(SyncEvent) error) context.CancelFunc {
	wcb := func(x SyncEvent) {
		if err := cb(x); err != nil {
			m.Log.Warn().Err(err).Msg("Sync event processing error")
		}
	}
	m.syncEvents.Sub(wcb)
	return func() {
		m.syncEvents.Leave(wcb)
	}
}
