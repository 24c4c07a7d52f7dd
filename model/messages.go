package model

import (
	"github.com/pkg/errors"
)

// ProtocolVersion is the version announced in startup-done messages.
const ProtocolVersion = "1"

// Message types sent by clients and exporters to the coordinator.
const (
	MessageTypeStartupDone = "startup-done"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeSync        = "sync"
	MessageTypeResource    = "resource"
	MessageTypeResponse    = "response"
)

// Message types sent by the coordinator.
const (
	MessageTypeHello       = "hello"
	MessageTypeUpdates     = "updates"
	MessageTypeSetAcquired = "set-acquired"
)

// Subscription scopes on the client stream.
const (
	SubscribeAllPlaces    = "places"
	SubscribeAllResources = "resources"
)

// ClientInMessage is a message sent by a client on the client stream.
type ClientInMessage struct {
	Type string `json:"type"`
	// Version is set on startup-done messages.
	Version string `json:"version,omitempty"`
	// Name is the "host/user" identity, set on startup-done messages.
	Name string `json:"name,omitempty"`
	// Scope is set on subscribe messages.
	Scope string `json:"scope,omitempty"`
	// SyncID is set on sync messages.
	SyncID uint64 `json:"sync_id,omitempty"`
}

// Validate the given message, returning nil on ok,
// or an error upon validation issues.
func (m ClientInMessage) Validate() error {
	switch m.Type {
	case MessageTypeStartupDone:
		if m.Version == "" {
			return maskAny(errors.Wrap(ValidationError, "startup-done without version"))
		}
		if m.Name == "" {
			return maskAny(errors.Wrap(ValidationError, "startup-done without name"))
		}
	case MessageTypeSubscribe:
		if m.Scope != SubscribeAllPlaces && m.Scope != SubscribeAllResources {
			return maskAny(errors.Wrapf(ValidationError, "unknown subscription scope '%s'", m.Scope))
		}
	case MessageTypeSync:
		if m.SyncID == 0 {
			return maskAny(errors.Wrap(ValidationError, "sync without id"))
		}
	default:
		return maskAny(errors.Wrapf(ValidationError, "unknown client message type '%s'", m.Type))
	}
	return nil
}

// ClientOutMessage is a message sent by the coordinator on the client stream.
type ClientOutMessage struct {
	Type string `json:"type"`
	// SyncID echoes a sync request once all updates before it are sent.
	SyncID  uint64   `json:"sync_id,omitempty"`
	Updates []Update `json:"updates,omitempty"`
}

// Update kinds carried on the client stream.
const (
	UpdateKindPlace           = "place"
	UpdateKindPlaceDeleted    = "place-deleted"
	UpdateKindResource        = "resource"
	UpdateKindResourceDeleted = "resource-deleted"
)

// Update carries a single changed entity.
type Update struct {
	Kind string `json:"kind"`
	// Place is set on place updates.
	Place *Place `json:"place,omitempty"`
	// PlaceName is set on place-deleted updates.
	PlaceName string `json:"place_name,omitempty"`
	// Resource is set on resource updates.
	Resource *Resource `json:"resource,omitempty"`
	// Path is set on resource-deleted updates.
	Path *ResourcePath `json:"path,omitempty"`
}

// Validate the given update, returning nil on ok,
// or an error upon validation issues.
func (u Update) Validate() error {
	switch u.Kind {
	case UpdateKindPlace:
		if u.Place == nil {
			return maskAny(errors.Wrap(ValidationError, "place update without place"))
		}
		return maskAny(u.Place.Validate())
	case UpdateKindPlaceDeleted:
		if u.PlaceName == "" {
			return maskAny(errors.Wrap(ValidationError, "place-deleted update without name"))
		}
	case UpdateKindResource:
		if u.Resource == nil {
			return maskAny(errors.Wrap(ValidationError, "resource update without resource"))
		}
		return maskAny(u.Resource.Validate())
	case UpdateKindResourceDeleted:
		if u.Path == nil {
			return maskAny(errors.Wrap(ValidationError, "resource-deleted update without path"))
		}
		return maskAny(u.Path.Validate())
	default:
		return maskAny(errors.Wrapf(ValidationError, "unknown update kind '%s'", u.Kind))
	}
	return nil
}

// ExporterOutMessage is a message sent by an exporter on the exporter stream.
type ExporterOutMessage struct {
	Type string `json:"type"`
	// Version and Name are set on startup-done messages.
	Version string `json:"version,omitempty"`
	Name    string `json:"name,omitempty"`
	// Resource is set on resource messages.
	Resource *Resource `json:"resource,omitempty"`
	// Response is set on response messages.
	Response *Response `json:"response,omitempty"`
}

// Validate the given message, returning nil on ok,
// or an error upon validation issues.
func (m ExporterOutMessage) Validate() error {
	switch m.Type {
	case MessageTypeStartupDone:
		if m.Version == "" {
			return maskAny(errors.Wrap(ValidationError, "startup-done without version"))
		}
		if m.Name == "" {
			return maskAny(errors.Wrap(ValidationError, "startup-done without name"))
		}
	case MessageTypeResource:
		if m.Resource == nil {
			return maskAny(errors.Wrap(ValidationError, "resource message without resource"))
		}
		return maskAny(m.Resource.Validate())
	case MessageTypeResponse:
		if m.Response == nil {
			return maskAny(errors.Wrap(ValidationError, "response message without response"))
		}
	default:
		return maskAny(errors.Wrapf(ValidationError, "unknown exporter message type '%s'", m.Type))
	}
	return nil
}

// Response reports the outcome of a coordinator request to an exporter.
type Response struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// ExporterInMessage is a message sent by the coordinator on the exporter stream.
type ExporterInMessage struct {
	Type string `json:"type"`
	// Version is set on hello messages.
	Version string `json:"version,omitempty"`
	// SetAcquired is set on set-acquired messages.
	SetAcquired *SetAcquiredRequest `json:"set_acquired,omitempty"`
}

// Validate the given message, returning nil on ok,
// or an error upon validation issues.
func (m ExporterInMessage) Validate() error {
	switch m.Type {
	case MessageTypeHello:
		if m.Version == "" {
			return maskAny(errors.Wrap(ValidationError, "hello without version"))
		}
	case MessageTypeSetAcquired:
		if m.SetAcquired == nil {
			return maskAny(errors.Wrap(ValidationError, "set-acquired message without request"))
		}
		return maskAny(m.SetAcquired.Validate())
	default:
		return maskAny(errors.Wrapf(ValidationError, "unknown coordinator message type '%s'", m.Type))
	}
	return nil
}

// SetAcquiredRequest asks an exporter to mark a resource acquired by a
// place, or released when PlaceName is empty.
type SetAcquiredRequest struct {
	GroupName    string `json:"group"`
	ResourceName string `json:"resource"`
	PlaceName    string `json:"place,omitempty"`
}

// Validate the given request, returning nil on ok,
// or an error upon validation issues.
func (r SetAcquiredRequest) Validate() error {
	if r.GroupName == "" {
		return maskAny(errors.Wrap(ValidationError, "set-acquired without group"))
	}
	if r.ResourceName == "" {
		return maskAny(errors.Wrap(ValidationError, "set-acquired without resource"))
	}
	return nil
}
