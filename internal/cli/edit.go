// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newEditCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Correct an existing local entry",
	}
	cmd.AddCommand(newEditUsageCommand(app))
	return cmd
}

func newEditUsageCommand(app *App) *cobra.Command {
	var (
		zone       string
		quantity   float64
		meterStart float64
		meterEnd   float64
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "usage <id>",
		Short: "Correct a usage entry by id",
		Long:  "edit usage rewrites the given fields of a usage entry and queues it for re-sync. The machine, resource and date identify the entry and cannot be edited; delete and re-add instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			entry, err := app.store.UsageByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("zone") {
				entry.Zone = zone
			}
			if cmd.Flags().Changed("quantity") {
				entry.Quantity = quantity
			}
			if cmd.Flags().Changed("meter-start") {
				entry.MeterStart = meterStart
			}
			if cmd.Flags().Changed("meter-end") {
				entry.MeterEnd = meterEnd
			}
			if cmd.Flags().Changed("notes") {
				entry.Notes = notes
			}
			if err := app.store.UpdateUsage(cmd.Context(), entry); err != nil {
				return err
			}
			color.Green("updated usage #%d (%s), queued for sync", entry.ID, entry.UniqueKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "", "work zone")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity moved")
	cmd.Flags().Float64Var(&meterStart, "meter-start", 0, "odometer at start")
	cmd.Flags().Float64Var(&meterEnd, "meter-end", 0, "odometer at end")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}
