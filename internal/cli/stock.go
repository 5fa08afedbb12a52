// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStockCommand(app *App) *cobra.Command {
	var (
		date string
		set  string
	)
	cmd := &cobra.Command{
		Use:   "stock <resource>",
		Short: "Show the computed stock level for a resource",
		Long:  "stock shows the stock level derived from the latest checkpoint and the day's recorded deliveries and usages. With --set it records a measured checkpoint for the day instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			if set != "" {
				qty, err := strconv.ParseFloat(set, 64)
				if err != nil {
					return fmt.Errorf("invalid --set quantity %q", set)
				}
				if err := app.ledger.SaveCheck(cmd.Context(), resource, day, qty, app.session); err != nil {
					return err
				}
				color.Green("recorded stock check: %s = %s on %s", resource, set, day)
				return nil
			}

			lvl, err := app.ledger.Level(cmd.Context(), resource, day, app.session)
			if err != nil {
				return err
			}
			fmt.Printf("%s on %s\n", resource, day)
			fmt.Printf("  base:       %g\n", lvl.Base)
			fmt.Printf("  deliveries: +%g\n", lvl.Deliveries)
			fmt.Printf("  usages:     -%g\n", lvl.Usages)
			if lvl.Measured != nil {
				fmt.Printf("  measured:   %g\n", *lvl.Measured)
			}
			color.New(color.Bold).Printf("  displayed:  %g\n", lvl.Displayed)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&set, "set", "", "record a measured checkpoint with this quantity")
	return cmd
}
