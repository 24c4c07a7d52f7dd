package model

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ReservationState describes the lifecycle of a reservation.
type ReservationState string

const (
	// ReservationStateWaiting means no matching place is free yet.
	ReservationStateWaiting ReservationState = "waiting"
	// ReservationStateAllocated means a place has been set aside.
	ReservationStateAllocated ReservationState = "allocated"
	// ReservationStateAcquired means the owner has locked the allocated place.
	ReservationStateAcquired ReservationState = "acquired"
	// ReservationStateExpired means the reservation timed out.
	ReservationStateExpired ReservationState = "expired"
	// ReservationStateInvalid means the filters match no known place.
	ReservationStateInvalid ReservationState = "invalid"
)

// Validate the given state, returning nil on ok,
// or an error upon validation issues.
func (s ReservationState) Validate() error {
	switch s {
	case ReservationStateWaiting, ReservationStateAllocated, ReservationStateAcquired,
		ReservationStateExpired, ReservationStateInvalid:
		return nil
	}
	return maskAny(errors.Wrapf(ValidationError, "unknown reservation state '%s'", string(s)))
}

// IsFinal returns true when the reservation can no longer progress.
func (s ReservationState) IsFinal() bool {
	return s == ReservationStateExpired || s == ReservationStateInvalid
}

// Filter selects places by tag values.
type Filter map[string]string

// String returns the filter as sorted "key=value" entries joined by spaces.
func (f Filter) String() string {
	list := make([]string, 0, len(f))
	for k, v := range f {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return strings.Join(list, " ")
}

// MatchesTags returns true when all filter entries are present in the
// given tag set.
func (f Filter) MatchesTags(tags map[string]string) bool {
	for k, v := range f {
		if tags[k] != v {
			return false
		}
	}
	return true
}

// ParseKeyValues parses a list of "key=value" entries into a map.
func ParseKeyValues(args []string) (map[string]string, error) {
	result := make(map[string]string, len(args))
	for _, arg := range args {
		idx := strings.Index(arg, "=")
		if idx <= 0 {
			return nil, maskAny(errors.Wrapf(ValidationError, "expected 'key=value', got '%s'", arg))
		}
		result[arg[:idx]] = arg[idx+1:]
	}
	return result, nil
}

// Reservation is a queued request for a place matching a set of filters.
type Reservation struct {
	Owner       string              `json:"owner"`
	Token       string              `json:"token"`
	State       ReservationState    `json:"state"`
	Prio        float64             `json:"prio,omitempty"`
	Filters     map[string]Filter   `json:"filters"`
	Allocations map[string][]string `json:"allocations,omitempty"`
	Created     float64             `json:"created,omitempty"`
	Timeout     float64             `json:"timeout,omitempty"`
}

// Validate the given reservation, returning nil on ok,
// or an error upon validation issues.
func (r Reservation) Validate() error {
	if r.Owner == "" {
		return maskAny(errors.Wrap(ValidationError, "reservation owner empty"))
	}
	if r.Token == "" {
		return maskAny(errors.Wrap(ValidationError, "reservation token empty"))
	}
	if err := r.State.Validate(); err != nil {
		return maskAny(err)
	}
	if len(r.Filters) == 0 {
		return maskAny(errors.Wrapf(ValidationError, "reservation '%s' has no filters", r.Token))
	}
	return nil
}

// MainFilter returns the filter for the "main" group.
func (r Reservation) MainFilter() Filter {
	return r.Filters["main"]
}

// MainAllocation returns the first allocated place name for the "main"
// group, if any.
func (r Reservation) MainAllocation() (string, bool) {
	list := r.Allocations["main"]
	if len(list) == 0 {
		return "", false
	}
	return list[0], true
}

// CreatedTime returns the creation timestamp.
func (r Reservation) CreatedTime() time.Time {
	return unixTime(r.Created)
}

// TimeoutTime returns the expiry deadline.
func (r Reservation) TimeoutTime() time.Time {
	return unixTime(r.Timeout)
}

// SortReservations sorts the given list in place by token.
func SortReservations(list []Reservation) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Token < list[j].Token
	})
}
