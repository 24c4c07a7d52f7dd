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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/model"
)

var (
	reservationCmd = &cobra.Command{
		Use:   "reservation",
		Short: "Manage place reservations",
	}
	reservationPrio      float64
	reservationCreateCmd = &cobra.Command{
		Use:   "create <key=value>...",
		Short: "Queue a reservation for a place matching the given tag filters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := model.ParseKeyValues(args)
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			r, err := client.CreateReservation(cmd.Context(), map[string]model.Filter{
				"main": model.Filter(filter),
			}, reservationPrio)
			if err != nil {
				return err
			}
			printReservation(cmd, r)
			return nil
		},
	}
	reservationListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			reservations, err := client.GetReservations(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tOWNER\tSTATE\tPLACE\tFILTER")
			for _, r := range reservations {
				place, _ := r.MainAllocation()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Token, r.Owner, r.State, place, r.MainFilter().String())
			}
			return w.Flush()
		},
	}
	reservationCancelCmd = &cobra.Command{
		Use:   "cancel <token>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.CancelReservation(cmd.Context(), args[0])
		},
	}
	reservationPollCmd = &cobra.Command{
		Use:   "poll <token>",
		Short: "Refresh a reservation and show its current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			r, err := client.PollReservation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReservation(cmd, r)
			return nil
		},
	}
)

func printReservation(cmd *cobra.Command, r model.Reservation) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token: %s\n", r.Token)
	fmt.Fprintf(out, "State: %s\n", r.State)
	if r.Owner != "" {
		fmt.Fprintf(out, "Owner: %s\n", r.Owner)
	}
	if f := r.MainFilter(); len(f) > 0 {
		fmt.Fprintf(out, "Filter: %s\n", f.String())
	}
	if place, ok := r.MainAllocation(); ok {
		fmt.Fprintf(out, "Place: %s\n", place)
	}
}

func init() {
	reservationCreateCmd.Flags().Float64Var(&reservationPrio, "prio", 0, "Priority of the reservation")

	reservationCmd.AddCommand(reservationCreateCmd)
	reservationCmd.AddCommand(reservationListCmd)
	reservationCmd.AddCommand(reservationCancelCmd)
	reservationCmd.AddCommand(reservationPollCmd)
	rootCmd.AddCommand(reservationCmd)
}
