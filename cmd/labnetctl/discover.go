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
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/pkg/coordinator"
)

var (
	discoverTimeout time.Duration
	discoverCmd     = &cobra.Command{
		Use:   "discover",
		Short: "Browse mDNS for coordinators on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := coordinator.Discover(cmd.Context(), discoverTimeout, cliLog)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No coordinators found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tADDRESS\tHOSTNAME\tADDRESSES")
			for _, info := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Address(), info.HostName, strings.Join(info.Addresses, " "))
			}
			return w.Flush()
		},
	}
)

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", time.Second*3, "How long to browse for announcements")

	rootCmd.AddCommand(discoverCmd)
}
