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

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

// ExporterSession is a live registration of an exporter with the
// coordinator. It announces resources and receives acquire requests
// until closed.
type ExporterSession struct {
	log      zerolog.Logger
	conn     *websocket.Conn
	requests chan model.SetAcquiredRequest
	closed   chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error
}

// DialExporterSession connects to the exporter stream of the
// coordinator at the given address, awaits the coordinator hello and
// announces the exporter under the given name.
func DialExporterSession(ctx context.Context, address, name string, log zerolog.Logger) (*ExporterSession, error) {
	if name == "" {
		return nil, maskAny(errors.Wrap(model.ValidationError, "exporter name empty"))
	}
	wsURL, err := streamURL(address, "exporter")
	if err != nil {
		return nil, maskAny(err)
	}

	log = log.With().Str("component", "exporter-session").Logger()
	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		sessionConnectFailuresTotal.WithLabelValues("exporter").Inc()
		return nil, maskAny(err)
	}

	// The coordinator speaks first.
	conn.SetReadDeadline(time.Now().Add(connectTimeout))
	var hello model.ExporterInMessage
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		sessionConnectFailuresTotal.WithLabelValues("exporter").Inc()
		return nil, maskAny(err)
	}
	if hello.Type != model.MessageTypeHello {
		conn.Close()
		return nil, maskAny(errors.Wrapf(model.ValidationError, "expected hello, got '%s'", hello.Type))
	}
	if hello.Version != model.ProtocolVersion {
		conn.Close()
		return nil, maskAny(errors.Wrapf(model.ValidationError, "unsupported protocol version '%s'", hello.Version))
	}
	conn.SetReadDeadline(time.Time{})

	s := &ExporterSession{
		log:      log,
		conn:     conn,
		requests: make(chan model.SetAcquiredRequest, updateQueueSize),
		closed:   make(chan struct{}),
	}
	startup := model.ExporterOutMessage{
		Type:    model.MessageTypeStartupDone,
		Version: model.ProtocolVersion,
		Name:    name,
	}
	if err := s.send(startup); err != nil {
		conn.Close()
		sessionConnectFailuresTotal.WithLabelValues("exporter").Inc()
		return nil, maskAny(err)
	}
	sessionsStartedTotal.WithLabelValues("exporter").Inc()
	log.Debug().Str("name", name).Msg("Exporter session established")

	go s.readLoop()
	return s, nil
}

// Requests returns the channel on which coordinator acquire requests
// are delivered. It is closed when the session ends.
func (s *ExporterSession) Requests() <-chan model.SetAcquiredRequest {
	return s.requests
}

// SendResource announces the current state of the given resource.
func (s *ExporterSession) SendResource(r model.Resource) error {
	msg := model.ExporterOutMessage{
		Type:     model.MessageTypeResource,
		Resource: &r,
	}
	if err := s.send(msg); err != nil {
		return maskAny(err)
	}
	resourcesSentTotal.Inc()
	return nil
}

// Respond reports the outcome of the last acquire request.
func (s *ExporterSession) Respond(success bool, reason string) error {
	msg := model.ExporterOutMessage{
		Type:     model.MessageTypeResponse,
		Response: &model.Response{Success: success, Reason: reason},
	}
	return maskAny(s.send(msg))
}

// Err returns the error that ended the session, if any.
func (s *ExporterSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close terminates the session.
func (s *ExporterSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return maskAny(err)
}

func (s *ExporterSession) send(msg model.ExporterOutMessage) error {
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

func (s *ExporterSession) readLoop() {
	defer close(s.requests)
	for {
		var msg model.ExporterInMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.setErr(err)
			s.Close()
			return
		}
		switch msg.Type {
		case model.MessageTypeSetAcquired:
			if msg.SetAcquired == nil {
				s.log.Warn().Msg("Set-acquired message without request")
				continue
			}
			select {
			case s.requests <- *msg.SetAcquired:
			case <-s.closed:
				return
			}
		default:
			s.log.Warn().Str("type", msg.Type).Msg("Unexpected coordinator message")
		}
	}
}

func (s *ExporterSession) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err != nil {
		return
	}
	select {
	case <-s.closed:
		s.err = maskAny(SessionClosedError)
	default:
		s.err = maskAny(err)
	}
}
