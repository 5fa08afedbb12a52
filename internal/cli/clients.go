// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quarrylog/internal/clientaudit"
)

func newClientsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Inspect and repair client names on the remote sales list",
	}
	cmd.AddCommand(newClientsAuditCommand(app), newClientsMergeCommand(app))
	return cmd
}

func (a *App) clientAuditor() (*clientaudit.Auditor, error) {
	remote, err := a.remoteClient()
	if err != nil {
		return nil, err
	}
	return clientaudit.New(a.store, remote, a.cfg.Lists.Sales, a.logger), nil
}

func newClientsAuditCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report spelling variants, likely typos and incomplete sales",
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := app.clientAuditor()
			if err != nil {
				return err
			}
			report, err := auditor.Audit(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%d distinct clients on the sales list\n", len(report.Clients))

			if len(report.Variants) > 0 {
				color.New(color.Bold).Printf("\nspelling variants (%d groups)\n", len(report.Variants))
				for _, g := range report.Variants {
					fmt.Printf("  %s: %s\n", g.Normalized, strings.Join(g.Variants, ", "))
				}
			}

			if len(report.Typos) > 0 {
				color.New(color.Bold).Printf("\npossible typos (%d pairs)\n", len(report.Typos))
				for _, p := range report.Typos {
					fmt.Printf("  %q <> %q (distance %d)\n", p.A, p.B, p.Distance)
				}
			}

			if len(report.Flagged) > 0 {
				color.New(color.Bold).Printf("\nincomplete sales (%d items)\n", len(report.Flagged))
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "  ITEM\tCLIENT\tMISSING")
				for _, f := range report.Flagged {
					client := f.Client
					if client == "" {
						client = "(empty)"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\n", f.ItemID, client, strings.Join(f.Missing, ", "))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if len(report.Variants) == 0 && len(report.Typos) == 0 && len(report.Flagged) == 0 {
				color.Green("client names look clean")
			} else {
				fmt.Println("\nrun `quarrylog clients merge <target> <variant>...` to fold variants together")
			}
			return nil
		},
	}
}

func newClientsMergeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <target> <variant>...",
		Short: "Rewrite every sale under the given variants to the target name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := app.clientAuditor()
			if err != nil {
				return err
			}
			target, variants := args[0], args[1:]
			patched, err := auditor.Merge(cmd.Context(), variants, target)
			if err != nil {
				return err
			}
			color.Green("merged %d remote sales into %q", patched, target)
			return nil
		},
	}
}
