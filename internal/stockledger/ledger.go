// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package stockledger derives the displayable on-hand stock level for a
// resource on a day from measured checkpoints plus movement entries. The
// measured checkpoint is ground truth; movements only roll it forward.
package stockledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"quarrylog/internal/localstore"
)

// Store is the slice of the local store the ledger reads and writes.
type Store interface {
	StockCheckAt(ctx context.Context, resource, date string) (*localstore.StockCheck, error)
	LatestCheckBefore(ctx context.Context, resource, date string) (*localstore.StockCheck, error)
	MovementsOn(ctx context.Context, resource, date string) ([]localstore.UsageEntry, error)
	MovementsBetween(ctx context.Context, resource, after, before string) ([]localstore.UsageEntry, error)
	PutStockCheck(ctx context.Context, c *localstore.StockCheck) error
}

// Overrides supplies in-session measured values that shadow persisted
// checkpoints for display. A nil Overrides means no session state.
type Overrides interface {
	Override(date, resource string) (float64, bool)
}

// OverrideRecorder receives a freshly measured value so the session can
// shadow the persisted checkpoint until it reloads.
type OverrideRecorder interface {
	SetOverride(date, resource string, qty float64)
}

// Engine computes stock levels. It is a pure function of the store contents
// plus the session overrides handed to each call.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Level is the derived stock picture for one resource on one day.
type Level struct {
	Resource   string
	Date       string
	Base       float64  // stock at start of day, from checkpoint + prior movements
	Deliveries float64  // today's incoming quantity
	Usages     float64  // today's consumed quantity
	Measured   *float64 // today's measured value (checkpoint or session override), if any
	Displayed  float64  // Base + Deliveries - Usages
}

// Level derives the stock for (resource, date).
//
// Base resolution order: session override, same-day checkpoint, previous-day
// checkpoint rolled by that day's movements, most recent earlier checkpoint
// rolled by all movements in (checkpoint, date), else zero. Today's net
// movement is always added on top for the displayed figure; a measured base
// is never itself recomputed from movements.
func (e *Engine) Level(ctx context.Context, resource, date string, overrides Overrides) (Level, error) {
	lvl := Level{Resource: resource, Date: date}

	today, err := e.store.MovementsOn(ctx, resource, date)
	if err != nil {
		return lvl, err
	}
	for _, entry := range today {
		if entry.Movement == localstore.MovementDelivery {
			lvl.Deliveries += entry.Quantity
		} else {
			lvl.Usages += entry.Quantity
		}
	}

	base, measured, err := e.baseQuantity(ctx, resource, date, overrides)
	if err != nil {
		return lvl, err
	}
	lvl.Base = base
	lvl.Measured = measured
	lvl.Displayed = base + lvl.Deliveries - lvl.Usages
	return lvl, nil
}

func (e *Engine) baseQuantity(ctx context.Context, resource, date string, overrides Overrides) (float64, *float64, error) {
	if overrides != nil {
		if qty, ok := overrides.Override(date, resource); ok {
			return qty, &qty, nil
		}
	}

	if check, err := e.store.StockCheckAt(ctx, resource, date); err == nil {
		return check.QuantityOnHand, &check.QuantityOnHand, nil
	} else if !errors.Is(err, localstore.ErrNotFound) {
		return 0, nil, err
	}

	prev, err := previousDay(date)
	if err != nil {
		return 0, nil, err
	}
	if check, err := e.store.StockCheckAt(ctx, resource, prev); err == nil {
		net, err := e.netMovement(ctx, resource, prev)
		if err != nil {
			return 0, nil, err
		}
		return check.QuantityOnHand + net, nil, nil
	} else if !errors.Is(err, localstore.ErrNotFound) {
		return 0, nil, err
	}

	check, err := e.store.LatestCheckBefore(ctx, resource, date)
	if errors.Is(err, localstore.ErrNotFound) {
		return 0, nil, nil // never measured; start from zero
	}
	if err != nil {
		return 0, nil, err
	}
	entries, err := e.store.MovementsBetween(ctx, resource, check.Date, date)
	if err != nil {
		return 0, nil, err
	}
	return check.QuantityOnHand + netOf(entries), nil, nil
}

func (e *Engine) netMovement(ctx context.Context, resource, date string) (float64, error) {
	entries, err := e.store.MovementsOn(ctx, resource, date)
	if err != nil {
		return 0, err
	}
	return netOf(entries), nil
}

func netOf(entries []localstore.UsageEntry) float64 {
	var net float64
	for _, entry := range entries {
		if entry.Movement == localstore.MovementDelivery {
			net += entry.Quantity
		} else {
			net -= entry.Quantity
		}
	}
	return net
}

// SaveCheck persists a measured checkpoint for (resource, date), preserving
// the remote id of an earlier save so sync addresses the existing remote
// item. Non-finite quantities are rejected here, before any store mutation.
func (e *Engine) SaveCheck(ctx context.Context, resource, date string, quantity float64, overrides OverrideRecorder) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return &localstore.ValidationError{Field: "quantityOnHand", Reason: "must be a finite number"}
	}

	check := &localstore.StockCheck{
		Resource:       resource,
		Date:           date,
		QuantityOnHand: quantity,
	}
	if existing, err := e.store.StockCheckAt(ctx, resource, date); err == nil {
		check.RemoteID = existing.RemoteID
	} else if !errors.Is(err, localstore.ErrNotFound) {
		return err
	}

	if err := e.store.PutStockCheck(ctx, check); err != nil {
		return err
	}
	if overrides != nil {
		overrides.SetOverride(date, resource, quantity)
	}
	e.logger.Info("stock check saved", "resource", resource, "date", date, "quantity", quantity)
	return nil
}

// DailyDelta reports today's deliveries and usages for a resource without
// resolving the base quantity.
func (e *Engine) DailyDelta(ctx context.Context, resource, date string) (deliveries, usages float64, err error) {
	entries, err := e.store.MovementsOn(ctx, resource, date)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		if entry.Movement == localstore.MovementDelivery {
			deliveries += entry.Quantity
		} else {
			usages += entry.Quantity
		}
	}
	return deliveries, usages, nil
}

func previousDay(date string) (string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("stockledger: bad date %q: %w", date, err)
	}
	return day.AddDate(0, 0, -1).Format("2006-01-02"), nil
}
