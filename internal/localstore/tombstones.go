// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// deleteWithTombstone deletes one row addressed by keyColumn = key. When the
// row carries a remote id, a tombstone for (remoteID, listID) is queued in the
// same transaction, before the delete. A row that never reached the remote
// store is simply deleted.
func (s *Store) deleteWithTombstone(ctx context.Context, table, keyColumn string, key any, listID string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		var remoteID string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT remote_id FROM %s WHERE %s = ?`, table, keyColumn),
			key).Scan(&remoteID)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("localstore: read remote id for delete: %w", err)
		}

		if remoteID != "" {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO deletions_queue (remote_id, list_id) VALUES (?, ?)`,
				remoteID, listID); err != nil {
				return fmt.Errorf("localstore: queue tombstone: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, keyColumn), key); err != nil {
			return fmt.Errorf("localstore: delete from %s: %w", table, err)
		}
		return nil
	})
}

// Tombstones returns the queued remote deletions in queue order.
func (s *Store) Tombstones(ctx context.Context) ([]Tombstone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, remote_id, list_id FROM deletions_queue ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("localstore: query tombstones: %w", err)
	}
	defer rows.Close()

	var tombs []Tombstone
	for rows.Next() {
		var t Tombstone
		if err := rows.Scan(&t.ID, &t.RemoteID, &t.ListID); err != nil {
			return nil, fmt.Errorf("localstore: scan tombstone: %w", err)
		}
		tombs = append(tombs, t)
	}
	return tombs, rows.Err()
}

// RemoveTombstone drops a queue entry after the remote delete succeeded.
func (s *Store) RemoveTombstone(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deletions_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("localstore: remove tombstone: %w", err)
	}
	return nil
}
