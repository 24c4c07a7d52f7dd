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

	"github.com/spf13/cobra"

	"github.com/labnet/LabClient/pkg/coordinator"
)

// newClient creates a coordinator client for the configured address.
func newClient() (*coordinator.Client, error) {
	return coordinator.NewClient(coordinatorAddress())
}

var (
	placeCmd = &cobra.Command{
		Use:   "place",
		Short: "Manage places",
	}
	placeListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all places",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			places, err := client.GetPlaces(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tACQUIRED\tRESERVATION\tTAGS")
			for _, p := range places {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Acquired, p.Reservation, strings.Join(p.TagList(), " "))
			}
			return w.Flush()
		},
	}
	placeShowCmd = &cobra.Command{
		Use:   "show <name>",
		Short: "Show details of a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			p, err := client.GetPlace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", p.Name)
			if len(p.Aliases) > 0 {
				fmt.Fprintf(out, "Aliases: %s\n", strings.Join(p.Aliases, ", "))
			}
			if p.Comment != "" {
				fmt.Fprintf(out, "Comment: %s\n", p.Comment)
			}
			if len(p.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(p.TagList(), " "))
			}
			for _, m := range p.Matches {
				if m.Rename != "" {
					fmt.Fprintf(out, "Match: %s -> %s\n", m.String(), m.Rename)
				} else {
					fmt.Fprintf(out, "Match: %s\n", m.String())
				}
			}
			if p.IsAcquired() {
				fmt.Fprintf(out, "Acquired: %s\n", p.Acquired)
				for _, path := range p.AcquiredResources {
					fmt.Fprintf(out, "Acquired resource: %s\n", path.String())
				}
			}
			if len(p.Allowed) > 0 {
				fmt.Fprintf(out, "Allowed: %s\n", strings.Join(p.Allowed, ", "))
			}
			if p.Reservation != "" {
				fmt.Fprintf(out, "Reservation: %s\n", p.Reservation)
			}
			if !p.CreatedTime().IsZero() {
				fmt.Fprintf(out, "Created: %s\n", p.CreatedTime().Local())
			}
			if !p.ChangedTime().IsZero() {
				fmt.Fprintf(out, "Changed: %s\n", p.ChangedTime().Local())
			}
			return nil
		},
	}
	placeAddCmd = &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.AddPlace(cmd.Context(), args[0])
		},
	}
	placeDeleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.DeletePlace(cmd.Context(), args[0])
		},
	}
	placeAliasCmd = &cobra.Command{
		Use:   "alias",
		Short: "Manage place aliases",
	}
	placeAliasAddCmd = &cobra.Command{
		Use:   "add <place> <alias>",
		Short: "Add an alias to a place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.AddPlaceAlias(cmd.Context(), args[0], args[1])
		},
	}
	placeAliasDeleteCmd = &cobra.Command{
		Use:   "delete <place> <alias>",
		Short: "Remove an alias from a place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.DeletePlaceAlias(cmd.Context(), args[0], args[1])
		},
	}
	placeTagsFlag = newKeyValuesFlag()
	placeTagsCmd  = &cobra.Command{
		Use:   "tags <place>",
		Short: "Set tags on a place, an empty value removes the tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.SetPlaceTags(cmd.Context(), args[0], placeTagsFlag.values)
		},
	}
	placeCommentCmd = &cobra.Command{
		Use:   "comment <place> [comment]",
		Short: "Set the comment of a place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.SetPlaceComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
		},
	}
	placeMatchCmd = &cobra.Command{
		Use:   "match",
		Short: "Manage resource match patterns of a place",
	}
	placeMatchRename string
	placeMatchAddCmd = &cobra.Command{
		Use:   "add <place> <exporter/group/cls[/name]>",
		Short: "Add a resource match pattern to a place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.AddPlaceMatch(cmd.Context(), args[0], args[1], placeMatchRename)
		},
	}
	placeMatchDeleteCmd = &cobra.Command{
		Use:   "delete <place> <exporter/group/cls[/name]>",
		Short: "Remove a resource match pattern from a place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.DeletePlaceMatch(cmd.Context(), args[0], args[1], placeMatchRename)
		},
	}
	placeAcquireCmd = &cobra.Command{
		Use:   "acquire <name>",
		Short: "Acquire a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.AcquirePlace(cmd.Context(), args[0])
		},
	}
	placeReleaseFrom string
	placeReleaseCmd  = &cobra.Command{
		Use:   "release <name>",
		Short: "Release a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.ReleasePlace(cmd.Context(), args[0], placeReleaseFrom)
		},
	}
	placeAllowCmd = &cobra.Command{
		Use:   "allow <name> <host/user>",
		Short: "Allow another user to use an acquired place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return client.AllowPlace(cmd.Context(), args[0], args[1])
		},
	}
)

func init() {
	placeTagsCmd.Flags().Var(placeTagsFlag, "tag", "Tag to set, repeatable")
	placeMatchAddCmd.Flags().StringVar(&placeMatchRename, "rename", "", "Name the matched resource gets within the place")
	placeMatchDeleteCmd.Flags().StringVar(&placeMatchRename, "rename", "", "Rename of the pattern to remove")
	placeReleaseCmd.Flags().StringVar(&placeReleaseFrom, "from", "", "Release a lock held by the given user")

	placeAliasCmd.AddCommand(placeAliasAddCmd)
	placeAliasCmd.AddCommand(placeAliasDeleteCmd)
	placeMatchCmd.AddCommand(placeMatchAddCmd)
	placeMatchCmd.AddCommand(placeMatchDeleteCmd)
	placeCmd.AddCommand(placeListCmd)
	placeCmd.AddCommand(placeShowCmd)
	placeCmd.AddCommand(placeAddCmd)
	placeCmd.AddCommand(placeDeleteCmd)
	placeCmd.AddCommand(placeAliasCmd)
	placeCmd.AddCommand(placeTagsCmd)
	placeCmd.AddCommand(placeCommentCmd)
	placeCmd.AddCommand(placeMatchCmd)
	placeCmd.AddCommand(placeAcquireCmd)
	placeCmd.AddCommand(placeReleaseCmd)
	placeCmd.AddCommand(placeAllowCmd)
	rootCmd.AddCommand(placeCmd)
}
