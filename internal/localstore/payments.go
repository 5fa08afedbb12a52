// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// PutPayment upserts the payment record for (client, date): one per client
// per day, the later amount winning. The remote id of an already-synced row
// is preserved.
func (s *Store) PutPayment(ctx context.Context, p *ClientPayment) error {
	if p.Client == "" {
		return &ValidationError{Field: "client", Reason: "must not be empty"}
	}
	if err := ValidateDate(p.Date); err != nil {
		return err
	}
	if p.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	p.SyncStatus = StatusPending
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_payments (client, date, amount, sync_status, remote_id)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (client, date) DO UPDATE SET
			amount = excluded.amount,
			sync_status = 0`,
		p.Client, p.Date, p.Amount.String(), p.RemoteID)
	if err != nil {
		return fmt.Errorf("localstore: put payment: %w", err)
	}
	return nil
}

// PaymentAt returns the payment for (client, date), or ErrNotFound.
func (s *Store) PaymentAt(ctx context.Context, client, date string) (*ClientPayment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT client, date, amount, sync_status, remote_id
		FROM client_payments WHERE client = ? AND date = ?`, client, date)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: payment at: %w", err)
	}
	return &p, nil
}

// PaymentsForClient returns every payment by client dated on or before upTo.
func (s *Store) PaymentsForClient(ctx context.Context, client, upTo string) ([]ClientPayment, error) {
	return s.queryPayments(ctx, `WHERE client = ? AND date <= ? ORDER BY date`, client, upTo)
}

// PendingPayments returns payments awaiting a sync round-trip.
func (s *Store) PendingPayments(ctx context.Context) ([]ClientPayment, error) {
	return s.queryPayments(ctx, `WHERE sync_status = 0 ORDER BY client, date`)
}

// MarkPaymentSynced records a successful push for the compound key.
func (s *Store) MarkPaymentSynced(ctx context.Context, client, date, remoteID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE client_payments SET sync_status = 1, remote_id = ?
		WHERE client = ? AND date = ?`, remoteID, client, date)
	if err != nil {
		return fmt.Errorf("localstore: mark payment synced: %w", err)
	}
	return nil
}

// ClientBalance reports where a client account stands as of date: total paid
// minus total sold, plus the day's own figures for display.
func (s *Store) ClientBalance(ctx context.Context, client, date string) (balance, paidToday, soldToday decimal.Decimal, err error) {
	sales, err := s.SalesForClient(ctx, client, date)
	if err != nil {
		return balance, paidToday, soldToday, err
	}
	payments, err := s.PaymentsForClient(ctx, client, date)
	if err != nil {
		return balance, paidToday, soldToday, err
	}

	var totalSold, totalPaid decimal.Decimal
	for _, sale := range sales {
		totalSold = totalSold.Add(sale.AmountPaid)
		if sale.Date == date {
			soldToday = soldToday.Add(sale.AmountPaid)
		}
	}
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
		if p.Date == date {
			paidToday = paidToday.Add(p.Amount)
		}
	}
	return totalPaid.Sub(totalSold), paidToday, soldToday, nil
}

func scanPayment(row interface{ Scan(...any) error }) (ClientPayment, error) {
	var p ClientPayment
	var amount string
	if err := row.Scan(&p.Client, &p.Date, &amount, &p.SyncStatus, &p.RemoteID); err != nil {
		return p, err
	}
	var err error
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return p, fmt.Errorf("parse payment amount %q: %w", amount, err)
	}
	return p, nil
}

func (s *Store) queryPayments(ctx context.Context, clause string, args ...any) ([]ClientPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client, date, amount, sync_status, remote_id
		FROM client_payments `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query payments: %w", err)
	}
	defer rows.Close()

	var payments []ClientPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("localstore: scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
