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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/labnet/LabClient/model"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true)
	tabStyle          = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(true)
	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle       = lipgloss.NewStyle().Faint(true)
	helpStyle         = lipgloss.NewStyle().Faint(true)
)

var (
	placeColumns = []table.Column{
		{Title: "Name", Width: 18},
		{Title: "Acquired", Width: 16},
		{Title: "Reservation", Width: 14},
		{Title: "Tags", Width: 24},
		{Title: "Changed", Width: 16},
	}
	resourceColumns = []table.Column{
		{Title: "Path", Width: 30},
		{Title: "Class", Width: 20},
		{Title: "Acquired", Width: 16},
		{Title: "Avail", Width: 6},
	}
	reservationColumns = []table.Column{
		{Title: "Token", Width: 14},
		{Title: "Owner", Width: 18},
		{Title: "State", Width: 10},
		{Title: "Place", Width: 16},
		{Title: "Created", Width: 16},
	}
)

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func placeRows(places []model.Place) []table.Row {
	rows := make([]table.Row, 0, len(places))
	for _, p := range places {
		rows = append(rows, table.Row{
			p.Name,
			p.Acquired,
			p.Reservation,
			formatTags(p.Tags),
			age(p.Changed),
		})
	}
	return rows
}

func resourceRows(resources []model.Resource) []table.Row {
	rows := make([]table.Row, 0, len(resources))
	for _, r := range resources {
		avail := "no"
		if r.Avail {
			avail = "yes"
		}
		rows = append(rows, table.Row{
			r.Path.String(),
			r.Class,
			r.Acquired,
			avail,
		})
	}
	return rows
}

func reservationRows(reservations []model.Reservation) []table.Row {
	rows := make([]table.Row, 0, len(reservations))
	for _, res := range reservations {
		place, found := res.MainAllocation()
		if !found {
			place = "-"
		}
		rows = append(rows, table.Row{
			res.Token,
			res.Owner,
			string(res.State),
			place,
			age(res.Created),
		})
	}
	return rows
}

func (r Root) headerView() string {
	parts := []string{titleStyle.Render("LabNet"), " "}
	for i, name := range tabNames {
		if i == r.tab {
			parts = append(parts, activeTabStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}
	conn := disconnectedStyle.Render(" disconnected")
	if r.connected {
		conn = connectedStyle.Render(" connected")
	}
	parts = append(parts, conn)
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func (r Root) footerView() string {
	status := r.status
	if r.availOnly {
		status = strings.TrimSpace("available only  " + status)
	}
	help := helpStyle.Render("tab: switch  a: acquire  d: release  f: available only  r: refresh  q: quit")
	return statusStyle.Render(status) + "\n" + help
}

// age renders a unix timestamp as a human friendly age.
func age(ts float64) string {
	if ts == 0 {
		return "-"
	}
	return humanize.Time(time.Unix(int64(ts), 0))
}

// formatTags renders tags as sorted "key=value" pairs.
func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, tags[k]))
	}
	return strings.Join(parts, " ")
}
