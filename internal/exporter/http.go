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

package exporter

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ServerConfig for the exporter HTTP server.
type ServerConfig struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	HTTPPort int
}

// Server serves exporter state over HTTP.
type Server struct {
	ServerConfig
	log     zerolog.Logger
	service Service
}

// NewServer configures a new Server.
func NewServer(cfg ServerConfig, log zerolog.Logger, service Service) (*Server, error) {
	return &Server{
		ServerConfig: cfg,
		log:          log.With().Str("component", "exporter-http").Logger(),
		service:      service,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.log
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return maskAny(errors.Wrapf(err, "failed to listen on address %s", httpAddr))
	}

	httpSrv := http.Server{
		Handler: s.router(),
	}

	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	go func() {
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to serve HTTP server")
		}
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
	}()

	// Wait until context closed
	<-ctx.Done()

	log.Info().Msg("Closing server")
	httpSrv.Shutdown(context.Background())
	return nil
}

// router builds the HTTP routes.
func (s *Server) router() *echo.Echo {
	httpRouter := echo.New()
	httpRouter.HideBanner = true
	httpRouter.GET("/healthz", s.handleHealth)
	httpRouter.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpRouter.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	httpRouter.GET("/resources", s.handleResources)
	return httpRouter
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// handleResources dumps the current resources with their acquisition
// state.
func (s *Server) handleResources(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Resources())
}
