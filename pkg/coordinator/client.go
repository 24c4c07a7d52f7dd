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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/labnet/LabClient/model"
)

const (
	// DefaultPort is the port the coordinator API listens on.
	DefaultPort = 20408
	// DefaultAddress is used when no coordinator address is configured.
	DefaultAddress = "localhost:20408"

	apiPrefix      = "/api/v1"
	requestTimeout = time.Second * 30
)

// Client invokes the unary coordinator API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the coordinator at the given address.
// The address is a "host:port" pair or a http(s) URL.
func NewClient(address string) (*Client, error) {
	baseURL, err := apiBaseURL(address)
	if err != nil {
		return nil, maskAny(err)
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// apiBaseURL normalizes the given coordinator address into the base URL
// of the unary API.
func apiBaseURL(address string) (string, error) {
	if address == "" {
		return "", maskAny(errors.Wrap(model.ValidationError, "coordinator address empty"))
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", maskAny(errors.Wrapf(model.ValidationError, "invalid coordinator address '%s'", address))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", maskAny(errors.Wrapf(model.ValidationError, "invalid coordinator scheme '%s'", u.Scheme))
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + apiPrefix
	return u.String(), nil
}

// GetPlaces requests all places known to the coordinator.
func (c *Client) GetPlaces(ctx context.Context) ([]model.Place, error) {
	var result []model.Place
	if err := c.request(ctx, http.MethodGet, "places", nil, &result); err != nil {
		return nil, maskAny(err)
	}
	model.SortPlaces(result)
	return result, nil
}

// GetPlace requests the place with given name.
func (c *Client) GetPlace(ctx context.Context, name string) (model.Place, error) {
	var result model.Place
	if err := c.request(ctx, http.MethodGet, "places/"+url.PathEscape(name), nil, &result); err != nil {
		return model.Place{}, maskAny(err)
	}
	return result, nil
}

// AddPlace creates a new place with given name.
func (c *Client) AddPlace(ctx context.Context, name string) error {
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	return maskAny(c.request(ctx, http.MethodPost, "places", body, nil))
}

// DeletePlace removes the place with given name.
func (c *Client) DeletePlace(ctx context.Context, name string) error {
	return maskAny(c.request(ctx, http.MethodDelete, "places/"+url.PathEscape(name), nil, nil))
}

// AddPlaceAlias adds an alias to the place with given name.
func (c *Client) AddPlaceAlias(ctx context.Context, placeName, alias string) error {
	body := struct {
		Alias string `json:"alias"`
	}{Alias: alias}
	return maskAny(c.request(ctx, http.MethodPost, "places/"+url.PathEscape(placeName)+"/aliases", body, nil))
}

// DeletePlaceAlias removes an alias from the place with given name.
func (c *Client) DeletePlaceAlias(ctx context.Context, placeName, alias string) error {
	return maskAny(c.request(ctx, http.MethodDelete, "places/"+url.PathEscape(placeName)+"/aliases/"+url.PathEscape(alias), nil, nil))
}

// SetPlaceTags replaces the tags of the place with given name.
// Entries with an empty value remove the tag.
func (c *Client) SetPlaceTags(ctx context.Context, placeName string, tags map[string]string) error {
	body := struct {
		Tags map[string]string `json:"tags"`
	}{Tags: tags}
	return maskAny(c.request(ctx, http.MethodPut, "places/"+url.PathEscape(placeName)+"/tags", body, nil))
}

// SetPlaceComment replaces the comment of the place with given name.
func (c *Client) SetPlaceComment(ctx context.Context, placeName, comment string) error {
	body := struct {
		Comment string `json:"comment"`
	}{Comment: comment}
	return maskAny(c.request(ctx, http.MethodPut, "places/"+url.PathEscape(placeName)+"/comment", body, nil))
}

// AddPlaceMatch adds a resource match pattern to the place with given
// name. An optional rename gives matched resources a different name
// within the place.
func (c *Client) AddPlaceMatch(ctx context.Context, placeName, pattern, rename string) error {
	if _, err := model.ParseMatchPattern(pattern); err != nil {
		return maskAny(err)
	}
	body := matchRequest{Pattern: pattern, Rename: rename}
	return maskAny(c.request(ctx, http.MethodPost, "places/"+url.PathEscape(placeName)+"/matches", body, nil))
}

// DeletePlaceMatch removes a resource match pattern from the place with
// given name.
func (c *Client) DeletePlaceMatch(ctx context.Context, placeName, pattern, rename string) error {
	body := matchRequest{Pattern: pattern, Rename: rename}
	return maskAny(c.request(ctx, http.MethodDelete, "places/"+url.PathEscape(placeName)+"/matches", body, nil))
}

type matchRequest struct {
	Pattern string `json:"pattern"`
	Rename  string `json:"rename,omitempty"`
}

// AcquirePlace locks the place with given name for the calling user.
func (c *Client) AcquirePlace(ctx context.Context, placeName string) error {
	return maskAny(c.request(ctx, http.MethodPost, "places/"+url.PathEscape(placeName)+"/acquire", nil, nil))
}

// ReleasePlace unlocks the place with given name.
// A non-empty fromUser releases a lock held by another user.
func (c *Client) ReleasePlace(ctx context.Context, placeName, fromUser string) error {
	body := struct {
		FromUser string `json:"from_user,omitempty"`
	}{FromUser: fromUser}
	return maskAny(c.request(ctx, http.MethodPost, "places/"+url.PathEscape(placeName)+"/release", body, nil))
}

// AllowPlace lets the given "host/user" use the acquired place with
// given name.
func (c *Client) AllowPlace(ctx context.Context, placeName, user string) error {
	body := struct {
		User string `json:"user"`
	}{User: user}
	return maskAny(c.request(ctx, http.MethodPost, "places/"+url.PathEscape(placeName)+"/allow", body, nil))
}

// GetResources requests all resources known to the coordinator.
func (c *Client) GetResources(ctx context.Context) ([]model.Resource, error) {
	var result []model.Resource
	if err := c.request(ctx, http.MethodGet, "resources", nil, &result); err != nil {
		return nil, maskAny(err)
	}
	model.SortResources(result)
	return result, nil
}

// CreateReservation queues a reservation for a place matching the given
// filters.
func (c *Client) CreateReservation(ctx context.Context, filters map[string]model.Filter, prio float64) (model.Reservation, error) {
	body := struct {
		Filters map[string]model.Filter `json:"filters"`
		Prio    float64                 `json:"prio,omitempty"`
	}{Filters: filters, Prio: prio}
	var result model.Reservation
	if err := c.request(ctx, http.MethodPost, "reservations", body, &result); err != nil {
		return model.Reservation{}, maskAny(err)
	}
	return result, nil
}

// CancelReservation removes the reservation with given token.
func (c *Client) CancelReservation(ctx context.Context, token string) error {
	return maskAny(c.request(ctx, http.MethodDelete, "reservations/"+url.PathEscape(token), nil, nil))
}

// PollReservation refreshes the reservation with given token and
// returns its current state.
func (c *Client) PollReservation(ctx context.Context, token string) (model.Reservation, error) {
	var result model.Reservation
	if err := c.request(ctx, http.MethodPost, "reservations/"+url.PathEscape(token)+"/poll", nil, &result); err != nil {
		return model.Reservation{}, maskAny(err)
	}
	return result, nil
}

// GetReservations requests all reservations known to the coordinator.
func (c *Client) GetReservations(ctx context.Context) ([]model.Reservation, error) {
	var result []model.Reservation
	if err := c.request(ctx, http.MethodGet, "reservations", nil, &result); err != nil {
		return nil, maskAny(err)
	}
	model.SortReservations(result)
	return result, nil
}

func (c *Client) request(ctx context.Context, method, relPath string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return maskAny(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+relPath, reader)
	if err != nil {
		return maskAny(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestsTotal.WithLabelValues(method).Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestErrorsTotal.WithLabelValues(method).Inc()
		return maskAny(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		requestErrorsTotal.WithLabelValues(method).Inc()
		return maskAny(errorFromStatus(resp.StatusCode, readErrorMessage(resp.Body)))
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

// readErrorMessage extracts the message of an error response.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
