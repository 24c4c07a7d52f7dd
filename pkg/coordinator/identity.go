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
	"os"
	osuser "os/user"

	"github.com/pkg/errors"

	"github.com/labnet/LabClient/model"
)

// Environment variables overriding the detected identity.
const (
	HostNameEnv = "LABNET_HOSTNAME"
	UserNameEnv = "LABNET_USERNAME"
)

// CoordinatorEnv overrides the coordinator address when none is
// configured.
const CoordinatorEnv = "LABNET_COORDINATOR"

// AddressOrDefault returns the given address, the LABNET_COORDINATOR
// variable or the default address, in that order.
func AddressOrDefault(address string) string {
	if address != "" {
		return address
	}
	if addr := os.Getenv(CoordinatorEnv); addr != "" {
		return addr
	}
	return DefaultAddress
}

// Identity returns the "host/user" name announced on coordinator
// streams. LABNET_HOSTNAME and LABNET_USERNAME override the values
// detected from the system.
func Identity() (string, error) {
	host := os.Getenv(HostNameEnv)
	if host == "" {
		h, err := os.Hostname()
		if err != nil {
			return "", maskAny(err)
		}
		host = h
	}
	user := os.Getenv(UserNameEnv)
	if user == "" {
		if u, err := osuser.Current(); err == nil {
			user = u.Username
		} else {
			user = os.Getenv("USER")
		}
	}
	if user == "" {
		return "", maskAny(errors.Wrap(model.ValidationError, "cannot determine user name"))
	}
	return host + "/" + user, nil
}
