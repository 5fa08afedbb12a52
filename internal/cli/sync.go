// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSyncCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending entries and queued deletions to the remote lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.syncEngine()
			if err != nil {
				return err
			}
			res, err := engine.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if res.Deferred {
				color.Yellow("offline - entries stay queued locally")
				return nil
			}
			fmt.Printf("pushed %d, deleted %d, failed %d, pending %d\n",
				res.Pushed, res.Deleted, res.Failed, res.Pending)
			return nil
		},
	}
}

func newRefreshCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace all local data with the current remote state",
		Long:  "refresh discards every local entry, including unsynced ones, and repopulates the local database from the remote lists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := app.store.PendingCount(cmd.Context())
			if err != nil {
				return err
			}
			if !yes {
				if pending > 0 {
					color.Red("%d unsynced entries will be LOST", pending)
				}
				fmt.Print("Replace all local data with remote data? [y/N] ")
				reader := bufio.NewReader(os.Stdin)
				line, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Println("aborted")
					return nil
				}
			}
			engine, err := app.syncEngine()
			if err != nil {
				return err
			}
			return engine.FullRefresh(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
