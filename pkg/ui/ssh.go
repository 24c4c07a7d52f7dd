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

package ui

import (
	"context"
	"net"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/pkg/coordinator"
)

var (
	maskAny = errors.WithStack
)

// SSHConfig for the SSH monitor server.
type SSHConfig struct {
	// Host interface to listen on
	Host string
	// Port to listen on for SSH requests
	SSHPort int
	// HostKeyPath of the server key pair.
	// A key pair is created there when absent.
	HostKeyPath string
}

// SSHServer serves the monitor over SSH, so shared lab displays can
// attach without a local installation.
type SSHServer struct {
	SSHConfig
	log     zerolog.Logger
	manager coordinator.Manager
}

// NewSSHServer configures a new SSHServer.
func NewSSHServer(cfg SSHConfig, log zerolog.Logger, manager coordinator.Manager) (*SSHServer, error) {
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = ".ssh/id_ed25519"
	}
	return &SSHServer{
		SSHConfig: cfg,
		log:       log.With().Str("component", "monitor-ssh").Logger(),
		manager:   manager,
	}, nil
}

// Run the server until the given context is canceled.
func (s *SSHServer) Run(ctx context.Context) error {
	log := s.log
	sshAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
	sshServer, err := wish.NewServer(
		wish.WithAddress(sshAddr),
		wish.WithHostKeyPath(s.HostKeyPath),
		// Middlewares do something on a ssh.Session, and then call the next
		// middleware in the stack.
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			// The last item in the chain is the first to be called.
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		return maskAny(errors.Wrap(err, "could not configure SSH server"))
	}

	log.Debug().Str("address", sshAddr).Msg("Serving SSH")
	go func() {
		if err := sshServer.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			log.Error().Err(err).Msg("failed to serve SSH server")
		}
		log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
	}()

	// Wait until context closed
	<-ctx.Done()

	log.Info().Msg("Closing SSH server")
	sshServer.Shutdown(context.Background())
	return nil
}

// teaHandler builds a monitor model for the incoming session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	root := New(s.manager)
	go func() {
		// Detach from the manager when the session ends.
		<-sess.Context().Done()
		root.Release()
	}()
	return root, []tea.ProgramOption{tea.WithAltScreen()}
}
