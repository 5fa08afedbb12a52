// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by point lookups when no row matches the key.
	ErrNotFound = errors.New("localstore: not found")

	// ErrDuplicateKey is returned when an insert violates a uniqueness
	// constraint (uniqueKey index or a compound primary key).
	ErrDuplicateKey = errors.New("localstore: duplicate key")
)

// ValidationError rejects malformed input at a write boundary before any
// store mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("localstore: invalid %s: %s", e.Field, e.Reason)
}

// MigrationError means the schema upgrade failed. It is fatal: the store must
// not be used with a partially migrated schema.
type MigrationError struct {
	Err error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("localstore: schema migration failed: %v", e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// mapSQLiteErr converts driver-level constraint violations into the store's
// error taxonomy. Other errors pass through unchanged.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
	}
	return err
}

// ValidateDate checks that s is a civil day in YYYY-MM-DD form. Dates are
// stored as TEXT so that lexicographic order matches chronological order.
func ValidateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD day", s)}
	}
	return nil
}
