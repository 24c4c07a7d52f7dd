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
	"github.com/labnet/LabClient/pkg/metrics"
)

const (
	subSystem = "power"
)

var (
	// operationsTotal counts power operations by driver and action.
	operationsTotal = metrics.MustRegisterCounterVec(subSystem, "operations_total",
		"Number of power operations", "driver", "action")
	// operationErrorsTotal counts failed power operations by driver and action.
	operationErrorsTotal = metrics.MustRegisterCounterVec(subSystem, "operation_errors_total",
		"Number of failed power operations", "driver", "action")
)
