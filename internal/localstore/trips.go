// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"fmt"
	"math"
)

// Production entries.

func validateProduction(e *ProductionEntry) error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.UniqueKey == "" {
		return &ValidationError{Field: "uniqueKey", Reason: "must not be empty"}
	}
	if e.Truck == "" {
		return &ValidationError{Field: "truck", Reason: "must not be empty"}
	}
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return &ValidationError{Field: "weight", Reason: "must be a finite number"}
	}
	return nil
}

// InsertProduction stores a new production entry as pending.
func (s *Store) InsertProduction(ctx context.Context, e *ProductionEntry) error {
	if err := validateProduction(e); err != nil {
		return err
	}
	e.SyncStatus = StatusPending
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO production_entries (unique_key, date, truck, weight, trips,
			origin, destination, comment, sync_status, remote_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UniqueKey, e.Date, e.Truck, e.Weight, e.Trips,
		e.Origin, e.Destination, e.Comment, e.SyncStatus, e.RemoteID)
	if err != nil {
		return mapSQLiteErr(err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("localstore: insert production: %w", err)
	}
	return nil
}

// ProductionByDate returns entries dated exactly date.
func (s *Store) ProductionByDate(ctx context.Context, date string) ([]ProductionEntry, error) {
	return s.queryProduction(ctx, `WHERE date = ? ORDER BY id`, date)
}

// PendingProduction returns entries awaiting a sync round-trip.
func (s *Store) PendingProduction(ctx context.Context) ([]ProductionEntry, error) {
	return s.queryProduction(ctx, `WHERE sync_status = 0 ORDER BY id`)
}

// MarkProductionSynced records a successful push.
func (s *Store) MarkProductionSynced(ctx context.Context, id int64, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE production_entries SET sync_status = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("localstore: mark production synced: %w", err)
	}
	return nil
}

// DeleteProduction removes an entry, queueing a tombstone when it was synced.
func (s *Store) DeleteProduction(ctx context.Context, id int64, listID string) error {
	return s.deleteWithTombstone(ctx, "production_entries", "id", id, listID)
}

func (s *Store) queryProduction(ctx context.Context, clause string, args ...any) ([]ProductionEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unique_key, date, truck, weight, trips, origin, destination,
			comment, sync_status, remote_id
		FROM production_entries `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query production: %w", err)
	}
	defer rows.Close()

	var entries []ProductionEntry
	for rows.Next() {
		var e ProductionEntry
		if err := rows.Scan(&e.ID, &e.UniqueKey, &e.Date, &e.Truck, &e.Weight, &e.Trips,
			&e.Origin, &e.Destination, &e.Comment, &e.SyncStatus, &e.RemoteID); err != nil {
			return nil, fmt.Errorf("localstore: scan production: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Debris-hauling entries.

func validateDebris(e *DebrisEntry) error {
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.UniqueKey == "" {
		return &ValidationError{Field: "uniqueKey", Reason: "must not be empty"}
	}
	if e.Truck == "" {
		return &ValidationError{Field: "truck", Reason: "must not be empty"}
	}
	if e.Trips < 0 {
		return &ValidationError{Field: "trips", Reason: "must not be negative"}
	}
	return nil
}

// InsertDebris stores a new debris-haul entry as pending.
func (s *Store) InsertDebris(ctx context.Context, e *DebrisEntry) error {
	if err := validateDebris(e); err != nil {
		return err
	}
	e.SyncStatus = StatusPending
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO debris_entries (unique_key, date, truck, trips, comment, sync_status, remote_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UniqueKey, e.Date, e.Truck, e.Trips, e.Comment, e.SyncStatus, e.RemoteID)
	if err != nil {
		return mapSQLiteErr(err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("localstore: insert debris: %w", err)
	}
	return nil
}

// DebrisByDate returns entries dated exactly date.
func (s *Store) DebrisByDate(ctx context.Context, date string) ([]DebrisEntry, error) {
	return s.queryDebris(ctx, `WHERE date = ? ORDER BY id`, date)
}

// PendingDebris returns entries awaiting a sync round-trip.
func (s *Store) PendingDebris(ctx context.Context) ([]DebrisEntry, error) {
	return s.queryDebris(ctx, `WHERE sync_status = 0 ORDER BY id`)
}

// MarkDebrisSynced records a successful push.
func (s *Store) MarkDebrisSynced(ctx context.Context, id int64, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE debris_entries SET sync_status = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("localstore: mark debris synced: %w", err)
	}
	return nil
}

// DeleteDebris removes an entry, queueing a tombstone when it was synced.
func (s *Store) DeleteDebris(ctx context.Context, id int64, listID string) error {
	return s.deleteWithTombstone(ctx, "debris_entries", "id", id, listID)
}

func (s *Store) queryDebris(ctx context.Context, clause string, args ...any) ([]DebrisEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unique_key, date, truck, trips, comment, sync_status, remote_id
		FROM debris_entries `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query debris: %w", err)
	}
	defer rows.Close()

	var entries []DebrisEntry
	for rows.Next() {
		var e DebrisEntry
		if err := rows.Scan(&e.ID, &e.UniqueKey, &e.Date, &e.Truck, &e.Trips,
			&e.Comment, &e.SyncStatus, &e.RemoteID); err != nil {
			return nil, fmt.Errorf("localstore: scan debris: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
