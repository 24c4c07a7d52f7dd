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
	"os"

	"golang.org/x/sys/unix"

	"github.com/labnet/LabClient/pkg/coordinator"
)

// HostIdentity returns the name this host exports under.
// LABNET_HOSTNAME wins, then the uname node name.
func HostIdentity() (string, error) {
	if name := os.Getenv(coordinator.HostNameEnv); name != "" {
		return name, nil
	}
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", maskAny(err)
	}
	return unix.ByteSliceToString(uts.Nodename[:]), nil
}
