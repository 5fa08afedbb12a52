// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"quarrylog/internal/localstore"
)

func newAddCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry in the local database",
	}
	cmd.AddCommand(
		newAddUsageCommand(app),
		newAddProductionCommand(app),
		newAddDebrisCommand(app),
		newAddSaleCommand(app),
		newAddPaymentCommand(app),
	)
	return cmd
}

func newAddUsageCommand(app *App) *cobra.Command {
	var (
		date       string
		zone       string
		resource   string
		quantity   float64
		meterStart float64
		meterEnd   float64
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "usage <machine>",
		Short: "Record machine resource usage or a delivery",
		Long:  "add usage records resource consumption for a machine. Machines whose name starts with the configured delivery marker are recorded as deliveries and add to stock instead of consuming it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			key := localstore.UsageKey(machine, resource, day)
			if resource == "" {
				key = localstore.MileageKey(machine, day)
			}
			entry := localstore.UsageEntry{
				UniqueKey:  key,
				Date:       day,
				Machine:    machine,
				Zone:       zone,
				Resource:   resource,
				Quantity:   quantity,
				MeterStart: meterStart,
				MeterEnd:   meterEnd,
				Notes:      notes,
				Movement:   localstore.ClassifyMachine(machine, app.cfg.DeliveryMarker),
			}
			if err := app.store.InsertUsage(cmd.Context(), &entry); err != nil {
				if errors.Is(err, localstore.ErrDuplicateKey) {
					return fmt.Errorf("an entry for %s already exists (key %s); edit it instead", machine, key)
				}
				return err
			}
			verb := "usage"
			if entry.Movement == localstore.MovementDelivery {
				verb = "delivery"
			}
			color.Green("recorded %s #%d (%s)", verb, entry.ID, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&zone, "zone", "", "work zone")
	cmd.Flags().StringVar(&resource, "resource", "", "resource moved (empty for mileage-only)")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity moved")
	cmd.Flags().Float64Var(&meterStart, "meter-start", 0, "odometer at start")
	cmd.Flags().Float64Var(&meterEnd, "meter-end", 0, "odometer at end")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newAddProductionCommand(app *App) *cobra.Command {
	var (
		date        string
		weight      float64
		trips       int
		origin      string
		destination string
		comment     string
	)
	cmd := &cobra.Command{
		Use:   "production <truck>",
		Short: "Record production tonnage hauled by a truck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			truck := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			entry := localstore.ProductionEntry{
				UniqueKey:   localstore.ProductionKey(truck, day),
				Date:        day,
				Truck:       truck,
				Weight:      weight,
				Trips:       trips,
				Origin:      origin,
				Destination: destination,
				Comment:     comment,
			}
			if err := app.store.InsertProduction(cmd.Context(), &entry); err != nil {
				return err
			}
			color.Green("recorded production #%d (%s)", entry.ID, entry.UniqueKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "tonnage hauled")
	cmd.Flags().IntVar(&trips, "trips", 1, "number of trips")
	cmd.Flags().StringVar(&origin, "origin", "", "origin zone")
	cmd.Flags().StringVar(&destination, "destination", "", "destination zone")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form comment")
	return cmd
}

func newAddDebrisCommand(app *App) *cobra.Command {
	var (
		date    string
		trips   int
		comment string
	)
	cmd := &cobra.Command{
		Use:   "debris <truck>",
		Short: "Record debris-hauling trips for a truck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			truck := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			entry := localstore.DebrisEntry{
				UniqueKey: localstore.DebrisKey(truck, day),
				Date:      day,
				Truck:     truck,
				Trips:     trips,
				Comment:   comment,
			}
			if err := app.store.InsertDebris(cmd.Context(), &entry); err != nil {
				return err
			}
			color.Green("recorded debris #%d (%s)", entry.ID, entry.UniqueKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&trips, "trips", 1, "number of trips")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form comment")
	return cmd
}

func newAddSaleCommand(app *App) *cobra.Command {
	var (
		date     string
		product  string
		quantity float64
		paid     string
		comment  string
	)
	cmd := &cobra.Command{
		Use:   "sale <client>",
		Short: "Record a sale to a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(paid)
			if err != nil {
				return fmt.Errorf("invalid --paid amount %q", paid)
			}
			entry := localstore.SaleEntry{
				UniqueKey:  localstore.SaleKey(client, day),
				Date:       day,
				Client:     client,
				Product:    product,
				Quantity:   quantity,
				AmountPaid: amount,
				Comment:    comment,
			}
			if err := app.store.InsertSale(cmd.Context(), &entry); err != nil {
				return err
			}
			color.Green("recorded sale #%d (%s)", entry.ID, entry.UniqueKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&product, "product", "", "product sold")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity sold")
	cmd.Flags().StringVar(&paid, "paid", "0", "amount paid with the sale")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form comment")
	return cmd
}

func newAddPaymentCommand(app *App) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "payment <client> <amount>",
		Short: "Record a client payment (one record per client per day)",
		Long:  "add payment records a payment. Recording a second payment for the same client and day replaces the first; the row is re-queued for sync.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := args[0]
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			payment := localstore.ClientPayment{
				Client: client,
				Date:   day,
				Amount: amount,
			}
			if err := app.store.PutPayment(cmd.Context(), &payment); err != nil {
				return err
			}
			color.Green("recorded payment %s for %s on %s", amount.String(), client, day)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	return cmd
}
