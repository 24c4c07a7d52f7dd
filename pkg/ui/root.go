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

// Package ui implements the interactive monitor for coordinator state.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/coordinator"
)

const (
	// Tables are reloaded on this interval so humanized ages stay fresh.
	refreshInterval = time.Second * 5
	actionTimeout   = time.Second * 5
)

const (
	tabPlaces = iota
	tabResources
	tabReservations
)

var tabNames = []string{"Places", "Resources", "Reservations"}

// Root is the monitor model. It renders the manager's cached view of
// the coordinator and lets the operator acquire & release places.
type Root struct {
	manager coordinator.Manager

	width     int
	height    int
	tab       int
	connected bool
	availOnly bool
	status    string

	places       table.Model
	resources    table.Model
	reservations table.Model

	changes chan struct{}
	cancels []context.CancelFunc
}

var _ tea.Model = Root{}

// New creates a monitor model on top of the given manager.
// Release must be called once the model is no longer used.
func New(manager coordinator.Manager) Root {
	r := Root{
		manager:      manager,
		connected:    manager.Connected(),
		places:       newTable(placeColumns),
		resources:    newTable(resourceColumns),
		reservations: newTable(reservationColumns),
		changes:      make(chan struct{}, 1),
	}
	changes := r.changes
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
			// A refresh is already pending
		}
	}
	r.cancels = []context.CancelFunc{
		manager.RegisterConnectionReceiver(func(coordinator.ConnectionEvent) error {
			notify()
			return nil
		}),
		manager.RegisterPlaceReceiver(func(coordinator.PlaceEvent) error {
			notify()
			return nil
		}),
		manager.RegisterResourceReceiver(func(coordinator.ResourceEvent) error {
			notify()
			return nil
		}),
		manager.RegisterReservationsReceiver(func(coordinator.ReservationsEvent) error {
			notify()
			return nil
		}),
	}
	r.places.Focus()
	return r.reload()
}

// Release detaches the model from the manager's event streams.
func (r Root) Release() {
	for _, cancel := range r.cancels {
		cancel()
	}
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return tea.Batch(r.waitForChange(), doTick())
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		r = r.reload()
		return r, r.waitForChange()
	case tickMsg:
		r = r.reload()
		return r, doTick()
	case actionDoneMsg:
		if msg.err != nil {
			r.status = msg.action + ": " + msg.err.Error()
		} else {
			r.status = msg.action + ": ok"
			r.manager.TriggerSync()
		}
		return r, nil
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
		return r.resize(), nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case "tab", "right":
			return r.focusTab((r.tab + 1) % len(tabNames)), nil
		case "shift+tab", "left":
			return r.focusTab((r.tab + len(tabNames) - 1) % len(tabNames)), nil
		case "a":
			return r, r.acquireSelected()
		case "d":
			return r, r.releaseSelected()
		case "f":
			r.availOnly = !r.availOnly
			return r.reload(), nil
		case "r":
			r.status = "refreshing"
			return r, r.refresh()
		}
	}

	// Scrolling keys go to the active table.
	var cmd tea.Cmd
	switch r.tab {
	case tabPlaces:
		r.places, cmd = r.places.Update(msg)
	case tabResources:
		r.resources, cmd = r.resources.Update(msg)
	default:
		r.reservations, cmd = r.reservations.Update(msg)
	}
	return r, cmd
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	return r.headerView() + "\n" + r.activeTable().View() + "\n" + r.footerView()
}

// reload rebuilds all table rows from the manager's cached state.
func (r Root) reload() Root {
	r.connected = r.manager.Connected()
	r.places.SetRows(placeRows(r.manager.GetPlaces()))
	resources := r.manager.GetResources()
	if r.availOnly {
		filtered := make([]model.Resource, 0, len(resources))
		for _, res := range resources {
			if res.Avail {
				filtered = append(filtered, res)
			}
		}
		resources = filtered
	}
	r.resources.SetRows(resourceRows(resources))
	r.reservations.SetRows(reservationRows(r.manager.GetReservations()))
	return r
}

func (r Root) focusTab(tab int) Root {
	r.tab = tab
	r.places.Blur()
	r.resources.Blur()
	r.reservations.Blur()
	switch tab {
	case tabPlaces:
		r.places.Focus()
	case tabResources:
		r.resources.Focus()
	default:
		r.reservations.Focus()
	}
	return r
}

func (r Root) activeTable() *table.Model {
	switch r.tab {
	case tabPlaces:
		return &r.places
	case tabResources:
		return &r.resources
	default:
		return &r.reservations
	}
}

func (r Root) resize() Root {
	height := r.height - lipgloss.Height(r.headerView()) - lipgloss.Height(r.footerView())
	if height < 3 {
		height = 3
	}
	r.places.SetWidth(r.width)
	r.places.SetHeight(height)
	r.resources.SetWidth(r.width)
	r.resources.SetHeight(height)
	r.reservations.SetWidth(r.width)
	r.reservations.SetHeight(height)
	return r
}

// selectedPlace returns the name of the selected place, if any.
func (r Root) selectedPlace() (string, bool) {
	if r.tab != tabPlaces {
		return "", false
	}
	row := r.places.SelectedRow()
	if len(row) == 0 {
		return "", false
	}
	return row[0], true
}

// acquireSelected locks the selected place for the current user.
func (r Root) acquireSelected() tea.Cmd {
	name, found := r.selectedPlace()
	if !found {
		return nil
	}
	client := r.manager.Client()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{
			action: "acquire " + name,
			err:    client.AcquirePlace(ctx, name),
		}
	}
}

// releaseSelected releases the selected place.
func (r Root) releaseSelected() tea.Cmd {
	name, found := r.selectedPlace()
	if !found {
		return nil
	}
	client := r.manager.Client()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{
			action: "release " + name,
			err:    client.ReleasePlace(ctx, name, ""),
		}
	}
}

// refresh requests a sync round trip and refetches the reservations.
func (r Root) refresh() tea.Cmd {
	manager := r.manager
	return func() tea.Msg {
		manager.TriggerSync()
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{
			action: "refresh",
			err:    manager.RefreshReservations(ctx),
		}
	}
}

// waitForChange delivers the next manager event as a message.
func (r Root) waitForChange() tea.Cmd {
	changes := r.changes
	return func() tea.Msg {
		<-changes
		return stateChangedMsg{}
	}
}

type stateChangedMsg struct{}

type tickMsg time.Time

type actionDoneMsg struct {
	action string
	err    error
}

func doTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
