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

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/pkg/logging"
)

const (
	projectName = "LabNet control"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

var (
	consoleWriter = &zerolog.ConsoleWriter{Out: os.Stderr}
	logOutput     = logging.NewMultiWriter(consoleWriter)
	cliLog        = zerolog.New(logOutput).With().Timestamp().Logger()
)

var (
	rootCmd = &cobra.Command{
		Use:           "labnetctl",
		Short:         "Control a LabNet board farm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	levelFlag  string
	configFlag string
)

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := logging.Setup(logOutput, levelFlag)
		if err != nil {
			return err
		}
		cliLog = log
		return initSettings()
	}
	f := rootCmd.PersistentFlags()
	f.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	f.StringVarP(&configFlag, "config", "c", "", "Settings file to use")
	f.String("coordinator", "", "Address of the coordinator (host:port)")
}

func main() {
	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		cliLog.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		Exitf("%v\n", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
