// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

func validateStockCheck(c *StockCheck) error {
	if c.Resource == "" {
		return &ValidationError{Field: "resource", Reason: "must not be empty"}
	}
	if err := ValidateDate(c.Date); err != nil {
		return err
	}
	if math.IsNaN(c.QuantityOnHand) || math.IsInf(c.QuantityOnHand, 0) {
		return &ValidationError{Field: "quantityOnHand", Reason: "must be a finite number"}
	}
	return nil
}

// PutStockCheck upserts the measured checkpoint for (resource, date). A second
// save for the same day overwrites the quantity; the later value wins. The
// remote id of an already-synced checkpoint is preserved so the next sync
// addresses the existing remote item.
func (s *Store) PutStockCheck(ctx context.Context, c *StockCheck) error {
	if err := validateStockCheck(c); err != nil {
		return err
	}
	c.SyncStatus = StatusPending
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_checks (resource, date, quantity_on_hand, sync_status, remote_id)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (resource, date) DO UPDATE SET
			quantity_on_hand = excluded.quantity_on_hand,
			sync_status = 0`,
		c.Resource, c.Date, c.QuantityOnHand, c.RemoteID)
	if err != nil {
		return fmt.Errorf("localstore: put stock check: %w", err)
	}
	return nil
}

// StockCheckAt returns the checkpoint for (resource, date), or ErrNotFound.
func (s *Store) StockCheckAt(ctx context.Context, resource, date string) (*StockCheck, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT resource, date, quantity_on_hand, sync_status, remote_id
		FROM stock_checks WHERE resource = ? AND date = ?`, resource, date)
	var c StockCheck
	err := row.Scan(&c.Resource, &c.Date, &c.QuantityOnHand, &c.SyncStatus, &c.RemoteID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: stock check at: %w", err)
	}
	return &c, nil
}

// LatestCheckBefore returns the most recent checkpoint strictly before date,
// or ErrNotFound when the resource has never been measured.
func (s *Store) LatestCheckBefore(ctx context.Context, resource, date string) (*StockCheck, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT resource, date, quantity_on_hand, sync_status, remote_id
		FROM stock_checks WHERE resource = ? AND date < ?
		ORDER BY date DESC LIMIT 1`, resource, date)
	var c StockCheck
	err := row.Scan(&c.Resource, &c.Date, &c.QuantityOnHand, &c.SyncStatus, &c.RemoteID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: latest check before: %w", err)
	}
	return &c, nil
}

// PendingStockChecks returns checkpoints awaiting a sync round-trip.
func (s *Store) PendingStockChecks(ctx context.Context) ([]StockCheck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource, date, quantity_on_hand, sync_status, remote_id
		FROM stock_checks WHERE sync_status = 0 ORDER BY resource, date`)
	if err != nil {
		return nil, fmt.Errorf("localstore: query pending stock checks: %w", err)
	}
	defer rows.Close()

	var checks []StockCheck
	for rows.Next() {
		var c StockCheck
		if err := rows.Scan(&c.Resource, &c.Date, &c.QuantityOnHand, &c.SyncStatus, &c.RemoteID); err != nil {
			return nil, fmt.Errorf("localstore: scan stock check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// MarkStockCheckSynced records a successful push for the compound key.
func (s *Store) MarkStockCheckSynced(ctx context.Context, resource, date, remoteID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stock_checks SET sync_status = 1, remote_id = ?
		WHERE resource = ? AND date = ?`, remoteID, resource, date)
	if err != nil {
		return fmt.Errorf("localstore: mark stock check synced: %w", err)
	}
	return nil
}
