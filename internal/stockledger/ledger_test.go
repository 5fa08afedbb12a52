// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package stockledger

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"quarrylog/internal/localstore"
	"quarrylog/internal/session"
)

func newTestEngine(t *testing.T) (*Engine, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, nil), store
}

func addMovement(t *testing.T, store *localstore.Store, machine, resource, date string, qty float64, kind localstore.MovementKind) {
	t.Helper()
	require.NoError(t, store.InsertUsage(context.Background(), &localstore.UsageEntry{
		UniqueKey: localstore.UsageKey(machine, resource, date),
		Date:      date,
		Machine:   machine,
		Resource:  resource,
		Quantity:  qty,
		Movement:  kind,
	}))
}

func putCheck(t *testing.T, store *localstore.Store, resource, date string, qty float64) {
	t.Helper()
	require.NoError(t, store.PutStockCheck(context.Background(), &localstore.StockCheck{
		Resource: resource, Date: date, QuantityOnHand: qty,
	}))
}

func TestLevelFromPreviousDayCheckpoint(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	// measured 100 yesterday, used 30 yesterday, delivered 50 today
	putCheck(t, store, "diesel", "2026-08-29", 100)
	addMovement(t, store, "excavator", "diesel", "2026-08-29", 30, localstore.MovementUsage)
	addMovement(t, store, "livraison total", "diesel", "2026-08-30", 50, localstore.MovementDelivery)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	require.Equal(t, 70.0, lvl.Base)
	require.Equal(t, 50.0, lvl.Deliveries)
	require.Equal(t, 0.0, lvl.Usages)
	require.Equal(t, 120.0, lvl.Displayed)
	require.Nil(t, lvl.Measured)
}

func TestLevelSameDayCheckpointIsGroundTruth(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	putCheck(t, store, "diesel", "2026-08-29", 100)
	putCheck(t, store, "diesel", "2026-08-30", 80) // measured this morning
	addMovement(t, store, "excavator", "diesel", "2026-08-30", 20, localstore.MovementUsage)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	require.Equal(t, 80.0, lvl.Base)
	require.NotNil(t, lvl.Measured)
	require.Equal(t, 80.0, *lvl.Measured)
	require.Equal(t, 60.0, lvl.Displayed)
}

func TestLevelRollsForwardOverCheckpointGap(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	// checkpoint a week back, movements scattered over the gap
	putCheck(t, store, "diesel", "2026-08-23", 200)
	addMovement(t, store, "excavator", "diesel", "2026-08-25", 40, localstore.MovementUsage)
	addMovement(t, store, "livraison total", "diesel", "2026-08-27", 100, localstore.MovementDelivery)
	addMovement(t, store, "dozer", "diesel", "2026-08-30", 10, localstore.MovementUsage)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	// 200 - 40 + 100 over the gap; today's -10 applies on top of the base
	require.Equal(t, 260.0, lvl.Base)
	require.Equal(t, 250.0, lvl.Displayed)
}

func TestLevelGapExcludesCheckpointDayMovements(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	// the checkpoint was measured after that day's movements; counting them
	// again would double-subtract
	putCheck(t, store, "diesel", "2026-08-23", 200)
	addMovement(t, store, "excavator", "diesel", "2026-08-23", 40, localstore.MovementUsage)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	require.Equal(t, 200.0, lvl.Base)
}

func TestLevelNeverMeasuredStartsFromZero(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	addMovement(t, store, "livraison total", "diesel", "2026-08-30", 75, localstore.MovementDelivery)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, lvl.Base)
	require.Equal(t, 75.0, lvl.Displayed)
}

func TestLevelSessionOverrideWins(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	putCheck(t, store, "diesel", "2026-08-30", 80)
	sess := session.New()
	sess.SetOverride("2026-08-30", "diesel", 95)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", sess)
	require.NoError(t, err)
	require.Equal(t, 95.0, lvl.Base)
	require.NotNil(t, lvl.Measured)
	require.Equal(t, 95.0, *lvl.Measured)
}

func TestLevelIgnoresOtherResources(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	putCheck(t, store, "diesel", "2026-08-29", 100)
	addMovement(t, store, "excavator", "oil", "2026-08-30", 500, localstore.MovementUsage)

	lvl, err := engine.Level(ctx, "diesel", "2026-08-30", nil)
	require.NoError(t, err)
	require.Equal(t, 100.0, lvl.Displayed)
}

func TestSaveCheckPreservesRemoteID(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	putCheck(t, store, "diesel", "2026-08-30", 100)
	require.NoError(t, store.MarkStockCheckSynced(ctx, "diesel", "2026-08-30", "remote-5"))

	require.NoError(t, engine.SaveCheck(ctx, "diesel", "2026-08-30", 90, nil))

	got, err := store.StockCheckAt(ctx, "diesel", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 90.0, got.QuantityOnHand)
	require.Equal(t, "remote-5", got.RemoteID)
	require.Equal(t, localstore.StatusPending, got.SyncStatus)
}

func TestSaveCheckRecordsSessionOverride(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	sess := session.New()
	require.NoError(t, engine.SaveCheck(ctx, "diesel", "2026-08-30", 42, sess))

	qty, ok := sess.Override("2026-08-30", "diesel")
	require.True(t, ok)
	require.Equal(t, 42.0, qty)
}

func TestSaveCheckRejectsNonFinite(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	var verr *localstore.ValidationError
	require.ErrorAs(t, engine.SaveCheck(ctx, "diesel", "2026-08-30", math.NaN(), nil), &verr)
	require.ErrorAs(t, engine.SaveCheck(ctx, "diesel", "2026-08-30", math.Inf(1), nil), &verr)
}

func TestDailyDelta(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	addMovement(t, store, "livraison total", "diesel", "2026-08-30", 50, localstore.MovementDelivery)
	addMovement(t, store, "excavator", "diesel", "2026-08-30", 30, localstore.MovementUsage)
	addMovement(t, store, "dozer", "diesel", "2026-08-30", 15, localstore.MovementUsage)

	deliveries, usages, err := engine.DailyDelta(ctx, "diesel", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 50.0, deliveries)
	require.Equal(t, 45.0, usages)
}
