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
	"github.com/labnet/LabClient/pkg/metrics"
)

const (
	subSystem = "coordinator"
)

var (
	// Unary API requests
	requestsTotal = metrics.MustRegisterCounterVec(subSystem,
		"requests_total",
		"Number of unary API requests",
		"method")
	requestErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"request_errors_total",
		"Number of failed unary API requests",
		"method")

	// Stream session metrics
	sessionsStartedTotal = metrics.MustRegisterCounterVec(subSystem,
		"sessions_started_total",
		"Number of established stream sessions",
		"stream")
	sessionConnectFailuresTotal = metrics.MustRegisterCounterVec(subSystem,
		"session_connect_failures_total",
		"Number of failed stream session dials",
		"stream")
	updatesReceivedTotal = metrics.MustRegisterCounter(subSystem,
		"updates_received_total",
		"Number of updates received on client sessions")
	resourcesSentTotal = metrics.MustRegisterCounter(subSystem,
		"resources_sent_total",
		"Number of resource announcements sent on exporter sessions")

	// Manager metrics
	connectedGauge = metrics.MustRegisterGauge(subSystem,
		"connected",
		"1 when the manager has a live coordinator session")
	reservationRefreshesTotal = metrics.MustRegisterCounter(subSystem,
		"reservation_refreshes_total",
		"Number of reservation list refreshes")
)
