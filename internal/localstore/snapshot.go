// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Snapshot is a full remote image of every entity table, used by the
// destructive full-refresh path.
type Snapshot struct {
	Usages      []UsageEntry
	StockChecks []StockCheck
	Production  []ProductionEntry
	Debris      []DebrisEntry
	Sales       []SaleEntry
	Payments    []ClientPayment
}

// ReplaceAll clears every entity table plus the tombstone queue and bulk
// inserts the snapshot, all in a single transaction. Interrupting the refresh
// can therefore never leave the store half-replaced.
func (s *Store) ReplaceAll(ctx context.Context, snap *Snapshot) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{
			"usage_entries", "stock_checks", "production_entries",
			"debris_entries", "sales", "client_payments", "deletions_queue",
		} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("localstore: clear %s: %w", table, err)
			}
		}

		for _, e := range snap.Usages {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO usage_entries (unique_key, date, machine, zone, resource, quantity,
					meter_start, meter_end, notes, movement_kind, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.UniqueKey, e.Date, e.Machine, e.Zone, e.Resource, e.Quantity,
				e.MeterStart, e.MeterEnd, e.Notes, e.Movement, e.SyncStatus, e.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert usage %s: %w", e.UniqueKey, err)
			}
		}
		// The compound-key tables upsert: a remote list can carry duplicate
		// items for one (resource, date) or (client, date), and a refresh must
		// still land. The later item wins, matching the Put* semantics.
		for _, c := range snap.StockChecks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stock_checks (resource, date, quantity_on_hand, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(resource, date) DO UPDATE SET
					quantity_on_hand = excluded.quantity_on_hand,
					sync_status = excluded.sync_status,
					remote_id = excluded.remote_id`,
				c.Resource, c.Date, c.QuantityOnHand, c.SyncStatus, c.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert stock check %s/%s: %w", c.Resource, c.Date, err)
			}
		}
		for _, e := range snap.Production {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO production_entries (unique_key, date, truck, weight, trips,
					origin, destination, comment, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.UniqueKey, e.Date, e.Truck, e.Weight, e.Trips,
				e.Origin, e.Destination, e.Comment, e.SyncStatus, e.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert production %s: %w", e.UniqueKey, err)
			}
		}
		for _, e := range snap.Debris {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO debris_entries (unique_key, date, truck, trips, comment, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.UniqueKey, e.Date, e.Truck, e.Trips, e.Comment, e.SyncStatus, e.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert debris %s: %w", e.UniqueKey, err)
			}
		}
		for _, e := range snap.Sales {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sales (unique_key, date, client, product, quantity, amount_paid,
					comment, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.UniqueKey, e.Date, e.Client, e.Product, e.Quantity, e.AmountPaid.String(),
				e.Comment, e.SyncStatus, e.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert sale %s: %w", e.UniqueKey, err)
			}
		}
		for _, p := range snap.Payments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO client_payments (client, date, amount, sync_status, remote_id)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(client, date) DO UPDATE SET
					amount = excluded.amount,
					sync_status = excluded.sync_status,
					remote_id = excluded.remote_id`,
				p.Client, p.Date, p.Amount.String(), p.SyncStatus, p.RemoteID); err != nil {
				return fmt.Errorf("localstore: bulk insert payment %s/%s: %w", p.Client, p.Date, err)
			}
		}
		return nil
	})
}
