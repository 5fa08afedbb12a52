// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBalanceCommand(app *App) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "balance <client>",
		Short: "Show a client's running balance up to a date",
		Long:  "balance sums everything the client has paid and everything they have bought up to and including the given date. A negative balance means the client owes money.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := args[0]
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			balance, paidToday, soldToday, err := app.store.ClientBalance(cmd.Context(), client, day)
			if err != nil {
				return err
			}
			fmt.Printf("%s as of %s\n", client, day)
			fmt.Printf("  paid today: %s\n", paidToday.String())
			fmt.Printf("  sold today: %s\n", soldToday.String())
			if balance.IsNegative() {
				color.Red("  balance:    %s (owes)", balance.String())
			} else {
				color.Green("  balance:    %s", balance.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "civil date (YYYY-MM-DD, default today)")
	return cmd
}
