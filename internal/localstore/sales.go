// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

func validateSale(e *SaleEntry) error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.UniqueKey == "" {
		return &ValidationError{Field: "uniqueKey", Reason: "must not be empty"}
	}
	if e.Client == "" {
		return &ValidationError{Field: "client", Reason: "must not be empty"}
	}
	if math.IsNaN(e.Quantity) || math.IsInf(e.Quantity, 0) {
		return &ValidationError{Field: "quantity", Reason: "must be a finite number"}
	}
	return nil
}

// InsertSale stores a new sale as pending.
func (s *Store) InsertSale(ctx context.Context, e *SaleEntry) error {
	if err := validateSale(e); err != nil {
		return err
	}
	e.SyncStatus = StatusPending
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (unique_key, date, client, product, quantity, amount_paid,
			comment, sync_status, remote_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UniqueKey, e.Date, e.Client, e.Product, e.Quantity, e.AmountPaid.String(),
		e.Comment, e.SyncStatus, e.RemoteID)
	if err != nil {
		return mapSQLiteErr(err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("localstore: insert sale: %w", err)
	}
	return nil
}

// SalesByDate returns sales dated exactly date.
func (s *Store) SalesByDate(ctx context.Context, date string) ([]SaleEntry, error) {
	return s.querySales(ctx, `WHERE date = ? ORDER BY id`, date)
}

// SalesForClient returns every sale to client dated on or before upTo.
func (s *Store) SalesForClient(ctx context.Context, client, upTo string) ([]SaleEntry, error) {
	return s.querySales(ctx, `WHERE client = ? AND date <= ? ORDER BY date, id`, client, upTo)
}

// PendingSales returns sales awaiting a sync round-trip.
func (s *Store) PendingSales(ctx context.Context) ([]SaleEntry, error) {
	return s.querySales(ctx, `WHERE sync_status = 0 ORDER BY id`)
}

// MarkSaleSynced records a successful push.
func (s *Store) MarkSaleSynced(ctx context.Context, id int64, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sales SET sync_status = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("localstore: mark sale synced: %w", err)
	}
	return nil
}

// RenameSalesClient rewrites the client name on every sale matching one of
// the given spellings. Sync status is untouched: the caller is expected to
// have corrected the remote items itself. Unique keys keep their original
// form, they are identity, not display.
func (s *Store) RenameSalesClient(ctx context.Context, variants []string, target string) (int64, error) {
	if target == "" {
		return 0, &ValidationError{Field: "client", Reason: "must not be empty"}
	}
	if len(variants) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(variants))
	args := make([]any, 0, len(variants)+1)
	args = append(args, target)
	for _, v := range variants {
		args = append(args, v)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales SET client = ?
		WHERE client IN (`+placeholders[:len(placeholders)-1]+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("localstore: rename sales client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("localstore: rename sales client: %w", err)
	}
	return n, nil
}

// DeleteSale removes a sale, queueing a tombstone when it was synced.
func (s *Store) DeleteSale(ctx context.Context, id int64, listID string) error {
	return s.deleteWithTombstone(ctx, "sales", "id", id, listID)
}

func (s *Store) querySales(ctx context.Context, clause string, args ...any) ([]SaleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unique_key, date, client, product, quantity, amount_paid,
			comment, sync_status, remote_id
		FROM sales `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query sales: %w", err)
	}
	defer rows.Close()

	var entries []SaleEntry
	for rows.Next() {
		var e SaleEntry
		var amount string
		if err := rows.Scan(&e.ID, &e.UniqueKey, &e.Date, &e.Client, &e.Product,
			&e.Quantity, &amount, &e.Comment, &e.SyncStatus, &e.RemoteID); err != nil {
			return nil, fmt.Errorf("localstore: scan sale: %w", err)
		}
		e.AmountPaid, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("localstore: parse sale amount %q: %w", amount, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
