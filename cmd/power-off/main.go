//    Copyright 2025 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/pkg/environment"
)

const (
	// environmentVar names the variable holding the path of the
	// environment description.
	environmentVar = "LABNET_ENV"
	// targetName is the fixed target this tool switches off.
	targetName = "main"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "power-off: %v\n", err)
		os.Exit(1)
	}
}

// run switches power of the main target off.
func run(ctx context.Context) error {
	path := os.Getenv(environmentVar)
	if path == "" {
		return errors.Errorf("%s is not set", environmentVar)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	env, err := environment.New(log, path)
	if err != nil {
		return err
	}
	defer env.Close()
	target, err := env.Target(targetName)
	if err != nil {
		return err
	}
	protocol, err := target.PowerProtocol()
	if err != nil {
		return err
	}
	return protocol.Off(ctx)
}
