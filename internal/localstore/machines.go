// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Machines returns the cached reference machines in code order.
func (s *Store) Machines(ctx context.Context) ([]Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_id, code, display_name, location, machine_type, active
		FROM machines ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("localstore: query machines: %w", err)
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.RemoteID, &m.Code, &m.DisplayName, &m.Location,
			&m.MachineType, &m.Active); err != nil {
			return nil, fmt.Errorf("localstore: scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// ReplaceMachines swaps the whole mirror in one transaction: clear then bulk
// insert, so a failure leaves the previous cache intact.
func (s *Store) ReplaceMachines(ctx context.Context, machines []Machine) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM machines`); err != nil {
			return fmt.Errorf("localstore: clear machines: %w", err)
		}
		for _, m := range machines {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO machines (remote_id, code, display_name, location, machine_type, active)
				VALUES (?, ?, ?, ?, ?, ?)`,
				m.RemoteID, m.Code, m.DisplayName, m.Location, m.MachineType, m.Active); err != nil {
				return fmt.Errorf("localstore: insert machine %s: %w", m.Code, err)
			}
		}
		return nil
	})
}
