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
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/labnet/LabClient/model"
)

var (
	// SessionClosedError is returned when a stream session has ended.
	SessionClosedError = errors.New("session closed")
	IsSessionClosed    = isErrorFunc(SessionClosedError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

// StatusError is returned when the coordinator responds with an
// unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// IsStatusError returns the status error inside the given error, if any.
func IsStatusError(err error) (StatusError, bool) {
	se, ok := errors.Cause(err).(StatusError)
	return se, ok
}

// errorFromStatus maps coordinator response codes onto model errors.
func errorFromStatus(statusCode int, message string) error {
	switch statusCode {
	case http.StatusNotFound:
		return errors.Wrap(model.NotFoundError, message)
	case http.StatusConflict:
		return errors.Wrap(model.AlreadyExistsError, message)
	}
	return StatusError{StatusCode: statusCode, Message: message}
}
