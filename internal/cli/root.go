// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. The store is opened once in the
// persistent pre-run and closed after the selected command finishes.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "quarrylog",
		Short:         "Offline-first quarry operations log",
		Long:          "quarrylog records machine usage, production, sales and stock levels locally and syncs them to the remote list store when connectivity allows.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&app.dbPath, "db", "", "path to the local database (overrides config)")

	root.AddCommand(
		newSyncCommand(app),
		newRefreshCommand(app),
		newStockCommand(app),
		newMachinesCommand(app),
		newAddCommand(app),
		newEditCommand(app),
		newListCommand(app),
		newDeleteCommand(app),
		newBalanceCommand(app),
		newClientsCommand(app),
	)
	return root
}
