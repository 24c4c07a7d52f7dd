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

package power

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/coordinator"
)

// Resource classes a remote power driver can delegate to.
const (
	// ResourceClassTasmota is an MQTT switchable smart plug.
	ResourceClassTasmota = "TasmotaPowerPort"
	// ResourceClassExternal is a port switched by exporter configured commands.
	ResourceClassExternal = "ExternalPower"
)

// RemoteConfig holds the configuration of a remote power driver.
type RemoteConfig struct {
	// Coordinator is the coordinator address.
	Coordinator string
	// Place is the name or alias of the place holding the power resource.
	Place string
	// CycleDelay is passed to the delegate driver.
	CycleDelay time.Duration
}

// remote switches power through a resource of an acquired place.
// Every operation resolves the place, builds a local delegate from the
// resource params and forwards the call. The exporter's own switching
// stays a black box.
type remote struct {
	config RemoteConfig
	log    zerolog.Logger
	client *coordinator.Client
}

// NewRemote creates a power driver backed by a place on the coordinator.
func NewRemote(config RemoteConfig, log zerolog.Logger) (Protocol, error) {
	if config.Place == "" {
		return nil, maskAny(errors.Wrap(model.ValidationError, "place missing"))
	}
	client, err := coordinator.NewClient(coordinator.AddressOrDefault(config.Coordinator))
	if err != nil {
		return nil, maskAny(err)
	}
	return &remote{
		config: config,
		log:    log.With().Str("component", "power-remote").Logger(),
		client: client,
	}, nil
}

// On switches power on.
func (d *remote) On(ctx context.Context) error {
	operationsTotal.WithLabelValues("remote", "on").Inc()
	delegate, err := d.resolve(ctx)
	if err != nil {
		operationErrorsTotal.WithLabelValues("remote", "on").Inc()
		return maskAny(err)
	}
	defer delegate.Close()
	if err := delegate.On(ctx); err != nil {
		operationErrorsTotal.WithLabelValues("remote", "on").Inc()
		return maskAny(err)
	}
	return nil
}

// Off switches power off.
func (d *remote) Off(ctx context.Context) error {
	operationsTotal.WithLabelValues("remote", "off").Inc()
	delegate, err := d.resolve(ctx)
	if err != nil {
		operationErrorsTotal.WithLabelValues("remote", "off").Inc()
		return maskAny(err)
	}
	defer delegate.Close()
	if err := delegate.Off(ctx); err != nil {
		operationErrorsTotal.WithLabelValues("remote", "off").Inc()
		return maskAny(err)
	}
	return nil
}

// Cycle switches power off, waits and switches power back on.
func (d *remote) Cycle(ctx context.Context) error {
	operationsTotal.WithLabelValues("remote", "cycle").Inc()
	delegate, err := d.resolve(ctx)
	if err != nil {
		operationErrorsTotal.WithLabelValues("remote", "cycle").Inc()
		return maskAny(err)
	}
	defer delegate.Close()
	if err := delegate.Cycle(ctx); err != nil {
		operationErrorsTotal.WithLabelValues("remote", "cycle").Inc()
		return maskAny(err)
	}
	return nil
}

// Get returns the current power state.
func (d *remote) Get(ctx context.Context) (bool, error) {
	operationsTotal.WithLabelValues("remote", "get").Inc()
	delegate, err := d.resolve(ctx)
	if err != nil {
		operationErrorsTotal.WithLabelValues("remote", "get").Inc()
		return false, maskAny(err)
	}
	defer delegate.Close()
	on, err := delegate.Get(ctx)
	if err != nil {
		operationErrorsTotal.WithLabelValues("remote", "get").Inc()
		return false, maskAny(err)
	}
	return on, nil
}

// Capability returns the capability name of this driver.
func (d *remote) Capability() string {
	return Capability
}

// Close releases all resources held by this driver.
func (d *remote) Close() error {
	return nil
}

// resolve looks up the configured place and builds a delegate driver
// from its power resource.
// The place must be acquired before its resources may be switched.
func (d *remote) resolve(ctx context.Context) (Protocol, error) {
	places, err := d.client.GetPlaces(ctx)
	if err != nil {
		return nil, maskAny(err)
	}
	var place *model.Place
	for i, p := range places {
		if p.HasName(d.config.Place) {
			place = &places[i]
			break
		}
	}
	if place == nil {
		return nil, maskAny(errors.Wrapf(model.NotFoundError, "place '%s'", d.config.Place))
	}
	if !place.IsAcquired() {
		return nil, maskAny(errors.Wrapf(model.NotAcquiredError, "place '%s'", place.Name))
	}
	resources, err := d.client.GetResources(ctx)
	if err != nil {
		return nil, maskAny(err)
	}
	for _, r := range resources {
		if !isPowerClass(r.Class) {
			continue
		}
		if !d.placeHasResource(*place, r) {
			continue
		}
		if !r.Avail {
			return nil, maskAny(errors.Wrapf(model.NotFoundError, "power resource '%s' not available", r.Path.String()))
		}
		return d.driverForResource(r)
	}
	return nil, maskAny(errors.Wrapf(model.NotFoundError, "no power resource for place '%s'", place.Name))
}

// placeHasResource reports if the given resource belongs to the place.
// Acquired resources are authoritative, match patterns cover places
// acquired before the resource appeared.
func (d *remote) placeHasResource(place model.Place, r model.Resource) bool {
	for _, p := range place.AcquiredResources {
		if p == r.Path {
			return true
		}
	}
	return place.MatchesResource(r.Path, r.Class)
}

// driverForResource builds a local delegate from the resource params.
func (d *remote) driverForResource(r model.Resource) (Protocol, error) {
	switch r.Class {
	case ResourceClassTasmota:
		return NewTasmota(TasmotaConfig{
			Broker:     stringParam(r, "broker"),
			Topic:      stringParam(r, "topic"),
			OnPayload:  stringParam(r, "on_payload"),
			OffPayload: stringParam(r, "off_payload"),
			CycleDelay: d.config.CycleDelay,
		}, d.log)
	case ResourceClassExternal:
		return NewExternal(ExternalConfig{
			OnCommand:    argvParam(r, "on_cmd"),
			OffCommand:   argvParam(r, "off_cmd"),
			CycleCommand: argvParam(r, "cycle_cmd"),
			GetCommand:   argvParam(r, "get_cmd"),
			CycleDelay:   d.config.CycleDelay,
		}, d.log)
	}
	return nil, maskAny(errors.Wrapf(NotSupportedError, "resource class '%s'", r.Class))
}

func isPowerClass(cls string) bool {
	switch cls {
	case ResourceClassTasmota, ResourceClassExternal:
		return true
	}
	return false
}

// stringParam returns the named resource param as string.
func stringParam(r model.Resource, name string) string {
	if v, ok := r.Param(name); ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return ""
}

// argvParam returns the named resource param as argv vector.
func argvParam(r model.Resource, name string) []string {
	v, ok := r.Param(name)
	if !ok {
		return nil
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.AsString(); ok {
			result = append(result, s)
		}
	}
	return result
}
