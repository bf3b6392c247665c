// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func newStorageCommand() *cobra.Command {
	storageCmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect and check configured storage backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	storageCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the storage backends configured in storages.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			entries, err := appStorageEntries(app)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println(subtitleStyle.Render("no storage backends configured"))
				return nil
			}
			ids := maps.Keys(entries)
			slices.Sort(ids)
			for _, id := range ids {
				fmt.Printf("%s %s\n", cmdStyle.Render(id), subtitleStyle.Render("("+entries[id]+")"))
			}
			return nil
		},
	})

	storageCmd.AddCommand(&cobra.Command{
		Use:   "validate <storage-id>",
		Short: "Check that a storage backend is reachable with its stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			if err := app.Storages.Validate(cmd.Context(), args[0]); err != nil {
				fmt.Println(errorStyle.Render("✗ ") + args[0] + ": " + err.Error())
				return err
			}
			fmt.Println(successStyle.Render("✓ ") + args[0] + " reachable")
			return nil
		},
	})

	return storageCmd
}

// appStorageEntries flattens the storage table into id -> kind for listing.
func appStorageEntries(app *App) (map[string]string, error) {
	all, err := app.StorageTable.All()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for id, raw := range all {
		out[id] = raw.Kind
	}
	return out, nil
}
