// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMachinesCommand(app *App) *cobra.Command {
	var (
		all     bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List known machines from the master-data cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := app.machineCache()
			if err != nil {
				return err
			}
			if err := cache.Initialize(cmd.Context()); err != nil {
				return err
			}
			if refresh {
				if err := cache.Refresh(cmd.Context()); err != nil {
					return err
				}
			}

			machines := cache.Machines(!all)
			if len(machines) == 0 {
				color.Yellow("no machines cached - run with --refresh while online")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTYPE\tLOCATION\tACTIVE")
			for _, m := range machines {
				active := "yes"
				if !m.Active {
					active = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Code, m.DisplayName, m.MachineType, m.Location, active)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive machines")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "pull the machine list from the remote first")
	return cmd
}
