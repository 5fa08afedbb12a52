// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

const usageColumns = `id, unique_key, date, machine, zone, resource, quantity,
	meter_start, meter_end, notes, movement_kind, sync_status, remote_id`

func scanUsage(row interface{ Scan(...any) error }) (UsageEntry, error) {
	var e UsageEntry
	err := row.Scan(&e.ID, &e.UniqueKey, &e.Date, &e.Machine, &e.Zone, &e.Resource,
		&e.Quantity, &e.MeterStart, &e.MeterEnd, &e.Notes, &e.Movement,
		&e.SyncStatus, &e.RemoteID)
	return e, err
}

func validateUsage(e *UsageEntry) error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.Machine == "" {
		return &ValidationError{Field: "machine", Reason: "must not be empty"}
	}
	if e.UniqueKey == "" {
		return &ValidationError{Field: "uniqueKey", Reason: "must not be empty"}
	}
	if math.IsNaN(e.Quantity) || math.IsInf(e.Quantity, 0) {
		return &ValidationError{Field: "quantity", Reason: "must be a finite number"}
	}
	if e.Movement != MovementDelivery && e.Movement != MovementUsage {
		return &ValidationError{Field: "movementKind", Reason: "must be delivery or usage"}
	}
	return nil
}

// InsertUsage stores a new usage entry as pending. The uniqueKey index rejects
// a second row for the same (machine, resource, date) with ErrDuplicateKey.
func (s *Store) InsertUsage(ctx context.Context, e *UsageEntry) error {
	if err := validateUsage(e); err != nil {
		return err
	}
	e.SyncStatus = StatusPending
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_entries (unique_key, date, machine, zone, resource, quantity,
			meter_start, meter_end, notes, movement_kind, sync_status, remote_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UniqueKey, e.Date, e.Machine, e.Zone, e.Resource, e.Quantity,
		e.MeterStart, e.MeterEnd, e.Notes, e.Movement, e.SyncStatus, e.RemoteID)
	if err != nil {
		return mapSQLiteErr(err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("localstore: insert usage: %w", err)
	}
	return nil
}

// UpdateUsage rewrites a usage entry by id. Any field change resets the row
// to pending so the next sync pushes it again.
func (s *Store) UpdateUsage(ctx context.Context, e *UsageEntry) error {
	if err := validateUsage(e); err != nil {
		return err
	}
	e.SyncStatus = StatusPending
	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_entries
		SET unique_key = ?, date = ?, machine = ?, zone = ?, resource = ?, quantity = ?,
			meter_start = ?, meter_end = ?, notes = ?, movement_kind = ?, sync_status = ?
		WHERE id = ?`,
		e.UniqueKey, e.Date, e.Machine, e.Zone, e.Resource, e.Quantity,
		e.MeterStart, e.MeterEnd, e.Notes, e.Movement, e.SyncStatus, e.ID)
	if err != nil {
		return mapSQLiteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UsageByID looks up one entry.
func (s *Store) UsageByID(ctx context.Context, id int64) (*UsageEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+usageColumns+` FROM usage_entries WHERE id = ?`, id)
	e, err := scanUsage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: usage by id: %w", err)
	}
	return &e, nil
}

// UsagesByDate returns every entry dated exactly date, in insertion order.
func (s *Store) UsagesByDate(ctx context.Context, date string) ([]UsageEntry, error) {
	return s.queryUsages(ctx,
		`SELECT `+usageColumns+` FROM usage_entries WHERE date = ? ORDER BY id`, date)
}

// MovementsOn returns the entries for one resource dated exactly date.
func (s *Store) MovementsOn(ctx context.Context, resource, date string) ([]UsageEntry, error) {
	return s.queryUsages(ctx,
		`SELECT `+usageColumns+` FROM usage_entries
		 WHERE resource = ? AND date = ? ORDER BY id`, resource, date)
}

// MovementsBetween returns the entries for one resource in the open date
// range (after, before): the checkpoint day and the target day itself are
// both excluded.
func (s *Store) MovementsBetween(ctx context.Context, resource, after, before string) ([]UsageEntry, error) {
	return s.queryUsages(ctx,
		`SELECT `+usageColumns+` FROM usage_entries
		 WHERE resource = ? AND date > ? AND date < ? ORDER BY date, id`,
		resource, after, before)
}

// PendingUsages returns every entry still awaiting a sync round-trip.
func (s *Store) PendingUsages(ctx context.Context) ([]UsageEntry, error) {
	return s.queryUsages(ctx,
		`SELECT `+usageColumns+` FROM usage_entries WHERE sync_status = 0 ORDER BY id`)
}

// MarkUsageSynced records a successful push: status and remote id are written
// in the same statement so a crash cannot separate them.
func (s *Store) MarkUsageSynced(ctx context.Context, id int64, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE usage_entries SET sync_status = 1, remote_id = ? WHERE id = ?`,
		remoteID, id)
	if err != nil {
		return fmt.Errorf("localstore: mark usage synced: %w", err)
	}
	return nil
}

// DeleteUsage removes an entry. If the row was ever pushed remotely a
// tombstone is queued in the same transaction, so the remote copy cannot be
// orphaned.
func (s *Store) DeleteUsage(ctx context.Context, id int64, listID string) error {
	return s.deleteWithTombstone(ctx, "usage_entries", "id", id, listID)
}

func (s *Store) queryUsages(ctx context.Context, query string, args ...any) ([]UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query usages: %w", err)
	}
	defer rows.Close()

	var entries []UsageEntry
	for rows.Next() {
		e, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("localstore: scan usage: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
