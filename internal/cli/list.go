// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quarrylog/internal/localstore"
)

func syncMark(status int) string {
	if status == localstore.StatusSynced {
		return "synced"
	}
	return "pending"
}

func newListCommand(app *App) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the day's entries across all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			usages, err := app.store.UsagesByDate(ctx, day)
			if err != nil {
				return err
			}
			production, err := app.store.ProductionByDate(ctx, day)
			if err != nil {
				return err
			}
			debris, err := app.store.DebrisByDate(ctx, day)
			if err != nil {
				return err
			}
			sales, err := app.store.SalesByDate(ctx, day)
			if err != nil {
				return err
			}

			if len(usages)+len(production)+len(debris)+len(sales) == 0 {
				fmt.Fprintf(out, "no entries on %s\n", day)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if len(usages) > 0 {
				color.New(color.Bold).Fprintf(out, "usage (%d)\n", len(usages))
				fmt.Fprintln(w, "ID\tMACHINE\tRESOURCE\tQTY\tMOVEMENT\tSTATUS")
				for _, u := range usages {
					fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%s\t%s\n",
						u.ID, u.Machine, u.Resource, u.Quantity, u.Movement, syncMark(u.SyncStatus))
				}
				w.Flush()
			}
			if len(production) > 0 {
				color.New(color.Bold).Fprintf(out, "production (%d)\n", len(production))
				fmt.Fprintln(w, "ID\tTRUCK\tWEIGHT\tTRIPS\tROUTE\tSTATUS")
				for _, p := range production {
					fmt.Fprintf(w, "%d\t%s\t%g\t%d\t%s>%s\t%s\n",
						p.ID, p.Truck, p.Weight, p.Trips, p.Origin, p.Destination, syncMark(p.SyncStatus))
				}
				w.Flush()
			}
			if len(debris) > 0 {
				color.New(color.Bold).Fprintf(out, "debris (%d)\n", len(debris))
				fmt.Fprintln(w, "ID\tTRUCK\tTRIPS\tSTATUS")
				for _, d := range debris {
					fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.ID, d.Truck, d.Trips, syncMark(d.SyncStatus))
				}
				w.Flush()
			}
			if len(sales) > 0 {
				color.New(color.Bold).Fprintf(out, "sales (%d)\n", len(sales))
				fmt.Fprintln(w, "ID\tCLIENT\tPRODUCT\tQTY\tPAID\tSTATUS")
				for _, s := range sales {
					fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%s\t%s\n",
						s.ID, s.Client, s.Product, s.Quantity, s.AmountPaid.String(), syncMark(s.SyncStatus))
				}
				w.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	return cmd
}

func newDeleteCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a local entry and queue the remote deletion",
		Long:  "delete removes an entry from the local database. If the entry was already synced, its remote item is queued for deletion on the next sync. Tables: usage, production, debris, sale.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			ctx := cmd.Context()
			switch args[0] {
			case "usage":
				err = app.store.DeleteUsage(ctx, id, app.cfg.Lists.Usage)
			case "production":
				err = app.store.DeleteProduction(ctx, id, app.cfg.Lists.Production)
			case "debris":
				err = app.store.DeleteDebris(ctx, id, app.cfg.Lists.Debris)
			case "sale":
				err = app.store.DeleteSale(ctx, id, app.cfg.Lists.Sales)
			default:
				return fmt.Errorf("unknown table %q (usage, production, debris, sale)", args[0])
			}
			if err != nil {
				return err
			}
			color.Green("deleted %s #%d", args[0], id)
			return nil
		},
	}
	return cmd
}
