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

package main

import (
	"sort"
	"strings"

	"github.com/labnet/LabClient/model"
)

// keyValuesFlag collects repeated "key=value" arguments into a map.
type keyValuesFlag struct {
	values map[string]string
}

func newKeyValuesFlag() *keyValuesFlag {
	return &keyValuesFlag{values: make(map[string]string)}
}

// String returns the collected pairs in sorted order.
func (f *keyValuesFlag) String() string {
	pairs := make([]string, 0, len(f.values))
	for k, v := range f.values {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// Set parses a single "key=value" argument.
func (f *keyValuesFlag) Set(arg string) error {
	parsed, err := model.ParseKeyValues([]string{arg})
	if err != nil {
		return err
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	for k, v := range parsed {
		f.values[k] = v
	}
	return nil
}

// Type implements pflag.Value.
func (f *keyValuesFlag) Type() string {
	return "key=value"
}
