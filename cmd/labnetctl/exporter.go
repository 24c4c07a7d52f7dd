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
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/labnet/LabClient/internal/exporter"
)

var (
	exporterCmd = &cobra.Command{
		Use:   "exporter",
		Short: "Exporter agent",
	}
	exporterConfigFlag   string
	exporterNameFlag     string
	exporterHostFlag     string
	exporterHTTPPortFlag int
	exporterRunCmd       = &cobra.Command{
		Use:   "run",
		Short: "Announce local resources to the coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := exporter.Config{
				DeclarationPath: exporterConfigFlag,
				Name:            exporterNameFlag,
			}
			// The declaration's coordinator wins unless the flag is given.
			if rootCmd.PersistentFlags().Changed("coordinator") {
				conf.CoordinatorAddress = coordinatorAddress()
			}
			svc, err := exporter.NewService(conf, exporter.Dependencies{
				Log: cliLog,
			})
			if err != nil {
				return err
			}
			server, err := exporter.NewServer(exporter.ServerConfig{
				Host:     exporterHostFlag,
				HTTPPort: exporterHTTPPortFlag,
			}, cliLog, svc)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return svc.Run(ctx) })
			g.Go(func() error { return server.Run(ctx) })
			return ignoreCanceled(g.Wait())
		},
	}
)

func init() {
	exporterRunCmd.Flags().StringVar(&exporterConfigFlag, "config", "", "Path of the resource declaration file")
	exporterRunCmd.MarkFlagRequired("config")
	exporterRunCmd.Flags().StringVar(&exporterNameFlag, "name", "", "Exporter name, defaults to the declaration or host name")
	exporterRunCmd.Flags().StringVar(&exporterHostFlag, "host", "0.0.0.0", "Host interface to serve HTTP on")
	exporterRunCmd.Flags().IntVar(&exporterHTTPPortFlag, "http-port", 20409, "Port to serve HTTP on")

	exporterCmd.AddCommand(exporterRunCmd)
	rootCmd.AddCommand(exporterCmd)
}
