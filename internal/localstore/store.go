// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package localstore is the durable, versioned, offline-first home of every
// entity table. All mutations land here first (sync_status = 0) and are
// reconciled against the remote list store by the sync engine later.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"quarrylog/internal/localstore/migrations"
)

// Store wraps a single SQLite database holding all entity tables plus the
// deletion tombstone queue.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and runs the migration ladder.
// A migration failure is fatal: the store is closed and never handed out in a
// partially migrated state.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("localstore: open %s: %w", path, err)
	}
	// Single writer. SQLite serializes writes anyway; a single pooled
	// connection avoids SQLITE_BUSY under concurrent table syncs and keeps
	// :memory: databases coherent in tests.
	db.SetMaxOpenConns(1)

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, &MigrationError{Err: err}
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for schema inspection in tests.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a transaction. All writes commit together or none do;
// fn returning an error rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("localstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("localstore: commit tx: %w", err)
	}
	return nil
}

// PendingCount reports how many rows across every entity table still carry
// sync_status = 0, plus queued remote deletions. This is the figure behind
// the unsynced badge.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM usage_entries      WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM stock_checks       WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM production_entries WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM debris_entries     WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM sales              WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM client_payments    WHERE sync_status = 0) +
			(SELECT COUNT(*) FROM deletions_queue)`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("localstore: count pending: %w", err)
	}
	return n, nil
}
