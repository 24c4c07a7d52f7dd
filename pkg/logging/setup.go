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

package logging

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	maskAny = errors.WithStack
)

// Setup creates the root logger writing to the given output at the
// given level ("debug", "info", ...).
func Setup(out io.Writer, level string) (zerolog.Logger, error) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, maskAny(err)
	}
	logger := zerolog.New(out).With().Timestamp().Logger().Level(l)
	return logger, nil
}
