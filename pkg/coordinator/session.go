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
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

const (
	// connectTimeout bounds the dial plus handshake of a stream session.
	connectTimeout = time.Second * 30

	updateQueueSize = 64
)

// ClientSession is a live subscription to coordinator state.
// It delivers place and resource updates until closed.
type ClientSession struct {
	log     zerolog.Logger
	conn    *websocket.Conn
	updates chan model.ClientOutMessage
	closed  chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error

	lastSyncID uint64
}

// DialClientSession connects to the client stream of the coordinator at
// the given address, announces the calling identity and subscribes to
// all places and resources.
func DialClientSession(ctx context.Context, address string, log zerolog.Logger) (*ClientSession, error) {
	name, err := Identity()
	if err != nil {
		return nil, maskAny(err)
	}
	wsURL, err := streamURL(address, "client")
	if err != nil {
		return nil, maskAny(err)
	}

	log = log.With().Str("component", "client-session").Logger()
	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		sessionConnectFailuresTotal.WithLabelValues("client").Inc()
		return nil, maskAny(err)
	}

	s := &ClientSession{
		log:     log,
		conn:    conn,
		updates: make(chan model.ClientOutMessage, updateQueueSize),
		closed:  make(chan struct{}),
	}
	handshake := []model.ClientInMessage{
		{Type: model.MessageTypeStartupDone, Version: model.ProtocolVersion, Name: name},
		{Type: model.MessageTypeSubscribe, Scope: model.SubscribeAllPlaces},
		{Type: model.MessageTypeSubscribe, Scope: model.SubscribeAllResources},
	}
	for _, msg := range handshake {
		if err := s.send(msg); err != nil {
			conn.Close()
			sessionConnectFailuresTotal.WithLabelValues("client").Inc()
			return nil, maskAny(err)
		}
	}
	sessionsStartedTotal.WithLabelValues("client").Inc()
	log.Debug().Str("name", name).Msg("Client session established")

	go s.readLoop()
	return s, nil
}

// Updates returns the channel on which coordinator updates are
// delivered. It is closed when the session ends.
func (s *ClientSession) Updates() <-chan model.ClientOutMessage {
	return s.updates
}

// Sync asks the coordinator to confirm when all updates queued before
// this call have been delivered. The returned id is echoed on the
// confirming message.
func (s *ClientSession) Sync() (uint64, error) {
	id := atomic.AddUint64(&s.lastSyncID, 1)
	if err := s.send(model.ClientInMessage{Type: model.MessageTypeSync, SyncID: id}); err != nil {
		return 0, maskAny(err)
	}
	return id, nil
}

// Err returns the error that ended the session, if any.
func (s *ClientSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close terminates the session.
func (s *ClientSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return maskAny(err)
}

func (s *ClientSession) send(msg model.ClientInMessage) error {
	if err := msg.Validate(); err != nil {
		return maskAny(err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return maskAny(err)
	}
	return nil
}

func (s *ClientSession) readLoop() {
	defer close(s.updates)
	for {
		var msg model.ClientOutMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.setErr(err)
			s.Close()
			return
		}
		updatesReceivedTotal.Add(float64(len(msg.Updates)))
		select {
		case s.updates <- msg:
		case <-s.closed:
			return
		}
	}
}

func (s *ClientSession) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err != nil {
		return
	}
	select {
	case <-s.closed:
		// Closed on purpose, keep the read error out of sight.
		s.err = maskAny(SessionClosedError)
	default:
		s.err = maskAny(err)
	}
}

// streamURL builds the websocket URL of the given stream at the given
// coordinator address.
func streamURL(address, stream string) (string, error) {
	base, err := apiBaseURL(address)
	if err != nil {
		return "", maskAny(err)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", maskAny(err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/stream/" + stream
	return u.String(), nil
}
