package model

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Place is a named logical position in the lab.
// Resources are attached to it by pattern matching.
type Place struct {
	Name              string            `json:"name"`
	Aliases           []string          `json:"aliases,omitempty"`
	Comment           string            `json:"comment,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	Matches           []ResourceMatch   `json:"matches,omitempty"`
	Acquired          string            `json:"acquired,omitempty"`
	AcquiredResources []ResourcePath    `json:"acquired_resources,omitempty"`
	Allowed           []string          `json:"allowed,omitempty"`
	Created           float64           `json:"created,omitempty"`
	Changed           float64           `json:"changed,omitempty"`
	Reservation       string            `json:"reservation,omitempty"`
}

// Validate the given place, returning nil on ok,
// or an error upon validation issues.
func (p Place) Validate() error {
	if p.Name == "" {
		return maskAny(errors.Wrap(ValidationError, "place name empty"))
	}
	for k := range p.Tags {
		if k == "" {
			return maskAny(errors.Wrapf(ValidationError, "place '%s' has an empty tag key", p.Name))
		}
	}
	for _, m := range p.Matches {
		if err := m.Validate(); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

// HasName returns true when the given name equals the place name
// or one of its aliases.
func (p Place) HasName(name string) bool {
	if name == p.Name {
		return true
	}
	for _, alias := range p.Aliases {
		if name == alias {
			return true
		}
	}
	return false
}

// IsAcquired returns true when the place is held by a user.
func (p Place) IsAcquired() bool {
	return p.Acquired != ""
}

// MatchesResource returns true when one of the place match patterns
// covers the given resource.
func (p Place) MatchesResource(path ResourcePath, cls string) bool {
	for _, m := range p.Matches {
		if m.Matches(path, cls) {
			return true
		}
	}
	return false
}

// TagList returns the tags as a sorted list of "key=value" entries.
func (p Place) TagList() []string {
	list := make([]string, 0, len(p.Tags))
	for k, v := range p.Tags {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// CreatedTime returns the creation timestamp.
func (p Place) CreatedTime() time.Time {
	return unixTime(p.Created)
}

// ChangedTime returns the last modification timestamp.
func (p Place) ChangedTime() time.Time {
	return unixTime(p.Changed)
}

// SortPlaces sorts the given list in place by name, using natural ordering.
func SortPlaces(list []Place) {
	sort.Slice(list, func(i, j int) bool {
		return CompareNatural(list[i].Name, list[j].Name) < 0
	})
}

// ResourceMatch is a pattern that attaches resources to a place.
// Each component is an exact value or the wildcard "*".
type ResourceMatch struct {
	Exporter string `json:"exporter"`
	Group    string `json:"group"`
	Class    string `json:"cls"`
	Name     string `json:"name,omitempty"`
	// Rename gives the matched resource a different name within the place.
	Rename string `json:"rename,omitempty"`
}

// ParseMatchPattern parses a pattern in "exporter/group/cls" or
// "exporter/group/cls/name" form.
func ParseMatchPattern(pattern string) (ResourceMatch, error) {
	parts := strings.Split(pattern, "/")
	if len(parts) != 3 && len(parts) != 4 {
		return ResourceMatch{}, maskAny(errors.Wrapf(ValidationError, "invalid match pattern '%s'", pattern))
	}
	m := ResourceMatch{
		Exporter: parts[0],
		Group:    parts[1],
		Class:    parts[2],
	}
	if len(parts) == 4 {
		m.Name = parts[3]
	}
	if err := m.Validate(); err != nil {
		return ResourceMatch{}, maskAny(err)
	}
	return m, nil
}

// String returns the pattern in "exporter/group/cls[/name]" form.
func (m ResourceMatch) String() string {
	s := m.Exporter + "/" + m.Group + "/" + m.Class
	if m.Name != "" {
		s = s + "/" + m.Name
	}
	return s
}

// Validate the given match, returning nil on ok,
// or an error upon validation issues.
func (m ResourceMatch) Validate() error {
	if m.Exporter == "" {
		return maskAny(errors.Wrap(ValidationError, "match exporter empty"))
	}
	if m.Group == "" {
		return maskAny(errors.Wrap(ValidationError, "match group empty"))
	}
	if m.Class == "" {
		return maskAny(errors.Wrap(ValidationError, "match class empty"))
	}
	return nil
}

// Matches returns true when the given resource path and class fit this
// pattern. An empty or "*" component matches anything. An empty name
// component matches any resource name.
func (m ResourceMatch) Matches(path ResourcePath, cls string) bool {
	if !matchComponent(m.Exporter, path.ExporterName) {
		return false
	}
	if !matchComponent(m.Group, path.GroupName) {
		return false
	}
	if !matchComponent(m.Class, cls) {
		return false
	}
	if m.Name == "" {
		return true
	}
	return matchComponent(m.Name, path.ResourceName)
}

func matchComponent(pattern, value string) bool {
	return pattern == "" || pattern == "*" || pattern == value
}

func unixTime(secs float64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(secs)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
