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

// Package exporter implements the agent that announces lab resources
// to the coordinator and answers its acquire requests.
package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/coordinator"
)

var (
	maskAny = errors.WithStack
)

const (
	defaultRedialInterval = time.Second * 5
)

// Config of the exporter service.
type Config struct {
	// DeclarationPath points to the resource declaration file.
	DeclarationPath string
	// CoordinatorAddress overrides the declaration's coordinator.
	CoordinatorAddress string
	// Name overrides the exporter name.
	Name string
	// RedialInterval between connection attempts.
	RedialInterval time.Duration
}

// Dependencies of the exporter service.
type Dependencies struct {
	Log zerolog.Logger
}

// Service announces resources to the coordinator and keeps their
// acquisition state.
type Service interface {
	// Run the exporter until the given context is canceled.
	Run(ctx context.Context) error
	// Name returns the exporter name.
	Name() string
	// Resources returns the current resources, sorted by path.
	Resources() []model.Resource
}

type service struct {
	Config
	Dependencies

	name    string
	address string

	mutex     sync.RWMutex
	resources map[string]*model.Resource
}

// NewService creates a Service with given config & dependencies.
func NewService(conf Config, deps Dependencies) (Service, error) {
	if conf.RedialInterval == 0 {
		conf.RedialInterval = defaultRedialInterval
	}
	deps.Log = deps.Log.With().Str("component", "exporter").Logger()

	decl, err := LoadDeclaration(conf.DeclarationPath)
	if err != nil {
		return nil, maskAny(err)
	}
	name := conf.Name
	if name == "" {
		name = decl.Name
	}
	if name == "" {
		name, err = HostIdentity()
		if err != nil {
			return nil, maskAny(err)
		}
	}
	address := conf.CoordinatorAddress
	if address == "" {
		address = decl.Coordinator
	}
	s := &service{
		Config:       conf,
		Dependencies: deps,
		name:         name,
		address:      coordinator.AddressOrDefault(address),
		resources:    make(map[string]*model.Resource),
	}
	for groupName, group := range decl.Groups {
		for _, rd := range group.Resources {
			r := &model.Resource{
				Path: model.ResourcePath{
					ExporterName: name,
					GroupName:    groupName,
					ResourceName: rd.Name,
				},
				Class:  rd.Class,
				Params: rd.Params,
				Extra:  rd.Extra,
				Avail:  true,
			}
			if err := r.Validate(); err != nil {
				return nil, maskAny(errors.Wrapf(err, "resource '%s'", r.Path.String()))
			}
			s.resources[r.Path.String()] = r
		}
	}
	resourceCount.Set(float64(len(s.resources)))
	return s, nil
}

// Run the exporter until the given context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log
	for {
		if err := s.runSession(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Exporter session ended")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.RedialInterval):
			// Retry
		}
	}
}

// Name returns the exporter name.
func (s *service) Name() string {
	return s.name
}

// Resources returns the current resources, sorted by path.
func (s *service) Resources() []model.Resource {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		result = append(result, *r)
	}
	model.SortResources(result)
	return result
}

// runSession announces all resources and serves acquire requests until
// the session ends.
func (s *service) runSession(ctx context.Context) error {
	session, err := coordinator.DialExporterSession(ctx, s.address, s.name, s.Log)
	if err != nil {
		return maskAny(err)
	}
	defer session.Close()

	resources := s.Resources()
	for _, r := range resources {
		if err := session.SendResource(r); err != nil {
			return maskAny(err)
		}
	}
	s.Log.Debug().Int("resources", len(resources)).Msg("Resources announced")

	for {
		select {
		case req, ok := <-session.Requests():
			if !ok {
				return maskAny(session.Err())
			}
			s.handleSetAcquired(session, req)
		case <-ctx.Done():
			return nil
		}
	}
}

// handleSetAcquired applies an acquire request, reports the outcome and
// republishes the changed resource.
func (s *service) handleSetAcquired(session *coordinator.ExporterSession, req model.SetAcquiredRequest) {
	acquireRequestsTotal.Inc()
	log := s.Log.With().
		Str("group", req.GroupName).
		Str("resource", req.ResourceName).
		Str("place", req.PlaceName).
		Logger()
	updated, err := s.setAcquired(req)
	if err != nil {
		acquireRejectionsTotal.Inc()
		log.Warn().Err(err).Msg("Rejected acquire request")
		if err := session.Respond(false, err.Error()); err != nil {
			log.Warn().Err(err).Msg("Failed to send response")
		}
		return
	}
	if err := session.Respond(true, ""); err != nil {
		log.Warn().Err(err).Msg("Failed to send response")
		return
	}
	if err := session.SendResource(updated); err != nil {
		log.Warn().Err(err).Msg("Failed to republish resource")
		return
	}
	log.Debug().Msg("Acquisition updated")
}

// setAcquired records the new owner place of a resource.
// An empty place name releases the resource.
func (s *service) setAcquired(req model.SetAcquiredRequest) (model.Resource, error) {
	if err := req.Validate(); err != nil {
		return model.Resource{}, maskAny(err)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	path := model.ResourcePath{
		ExporterName: s.name,
		GroupName:    req.GroupName,
		ResourceName: req.ResourceName,
	}
	r, found := s.resources[path.String()]
	if !found {
		return model.Resource{}, maskAny(errors.Wrapf(model.NotFoundError, "resource '%s'", path.String()))
	}
	r.Acquired = req.PlaceName
	return *r, nil
}
