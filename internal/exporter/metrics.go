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
	"github.com/labnet/LabClient/pkg/metrics"
)

const (
	subSystem = "exporter"
)

var (
	// acquireRequestsTotal counts received acquire requests.
	acquireRequestsTotal = metrics.MustRegisterCounter(subSystem, "acquire_requests_total",
		"Number of received acquire requests")
	// acquireRejectionsTotal counts rejected acquire requests.
	acquireRejectionsTotal = metrics.MustRegisterCounter(subSystem, "acquire_rejections_total",
		"Number of rejected acquire requests")
	// resourceCount tracks the number of declared resources.
	resourceCount = metrics.MustRegisterGauge(subSystem, "resources",
		"Number of declared resources")
)
