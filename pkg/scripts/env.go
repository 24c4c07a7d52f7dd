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

package scripts

import (
	"os"
	"sort"
)

// Environment variable names passed to script executions.
const (
	EnvEnvironment = "LABNET_ENV"
	EnvPlace       = "LABNET_PLACE"
	EnvCoordinator = "LABNET_COORDINATOR"
)

// Env holds the variables passed to executed scripts.
type Env map[string]string

// NewEnv creates an Env seeded from the process environment.
func NewEnv() Env {
	env := make(Env)
	for _, key := range []string{EnvEnvironment, EnvPlace, EnvCoordinator} {
		if value, found := os.LookupEnv(key); found {
			env[key] = value
		}
	}
	return env
}

// List returns all entries as sorted "key=value" strings.
func (e Env) List() []string {
	result := make([]string, 0, len(e))
	for key, value := range e {
		result = append(result, key+"="+value)
	}
	sort.Strings(result)
	return result
}
