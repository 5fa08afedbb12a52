// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"quarrylog/internal/auth"
	"quarrylog/internal/localstore"
	"quarrylog/internal/remotelist"
)

var testLists = ListIDs{
	Usage:       "list-usage",
	StockChecks: "list-checks",
	Production:  "list-production",
	Debris:      "list-debris",
	Sales:       "list-sales",
	Payments:    "list-payments",
}

// fakeRemote is an in-memory stand-in for the remote list store. All methods
// are safe for the engine's concurrent per-table goroutines.
type fakeRemote struct {
	mu      sync.Mutex
	lists   map[string]map[string]map[string]any // listID -> itemID -> fields
	nextID  int
	creates int
	updates int

	failTitles map[string]bool // creates for these titles fail
	failLists  map[string]bool // ListItems for these lists fails
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		lists:      make(map[string]map[string]map[string]any),
		failTitles: make(map[string]bool),
		failLists:  make(map[string]bool),
	}
}

func (f *fakeRemote) items(listID string) map[string]map[string]any {
	if f.lists[listID] == nil {
		f.lists[listID] = make(map[string]map[string]any)
	}
	return f.lists[listID]
}

func (f *fakeRemote) seed(listID string, fields map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("seed-%d", f.nextID)
	f.items(listID)[id] = fields
	return id
}

func (f *fakeRemote) ListItems(ctx context.Context, listID string) ([]remotelist.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLists[listID] {
		return nil, &remotelist.RequestError{Status: http.StatusInternalServerError, Body: "boom"}
	}
	var out []remotelist.Item
	for id, fields := range f.items(listID) {
		out = append(out, remotelist.Item{ID: id, Fields: fields})
	}
	return out, nil
}

func (f *fakeRemote) CreateItem(ctx context.Context, listID string, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if title, _ := fields["Title"].(string); f.failTitles[title] {
		return "", &remotelist.RequestError{Status: http.StatusServiceUnavailable, Body: "unavailable"}
	}
	f.nextID++
	f.creates++
	id := fmt.Sprintf("item-%d", f.nextID)
	f.items(listID)[id] = fields
	return id, nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, listID, itemID string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items(listID)[itemID]; !ok {
		return &remotelist.RequestError{Status: http.StatusNotFound, Body: "gone"}
	}
	f.updates++
	f.items(listID)[itemID] = fields
	return nil
}

func (f *fakeRemote) DeleteItem(ctx context.Context, listID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// already-gone deletes succeed, matching the HTTP client's 404 handling
	delete(f.items(listID), itemID)
	return nil
}

func (f *fakeRemote) FindByTitle(ctx context.Context, listID, title string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, fields := range f.items(listID) {
		if fields["Title"] == title {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeRemote) count(listID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items(listID))
}

func newTestEngine(t *testing.T, remote Remote, online bool) (*Engine, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := New(store, remote, auth.StaticSource("test-token"), testLists,
		func() bool { return online }, Hooks{}, nil)
	return engine, store
}

func insertTestUsage(t *testing.T, store *localstore.Store, machine string) *localstore.UsageEntry {
	t.Helper()
	entry := &localstore.UsageEntry{
		UniqueKey: localstore.UsageKey(machine, "diesel", "2026-08-30"),
		Date:      "2026-08-30",
		Machine:   machine,
		Resource:  "diesel",
		Quantity:  25,
		Movement:  localstore.MovementUsage,
	}
	require.NoError(t, store.InsertUsage(context.Background(), entry))
	return entry
}

func TestSyncPushesPendingRows(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	entry := insertTestUsage(t, store, "excavator")
	require.NoError(t, store.PutStockCheck(ctx, &localstore.StockCheck{
		Resource: "diesel", Date: "2026-08-30", QuantityOnHand: 140,
	}))
	require.NoError(t, store.PutPayment(ctx, &localstore.ClientPayment{
		Client: "acme", Date: "2026-08-30", Amount: decimal.NewFromInt(500),
	}))

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.False(t, res.Deferred)
	require.Equal(t, 3, res.Pushed)
	require.Zero(t, res.Failed)
	require.Zero(t, res.Pending)

	require.Equal(t, 1, remote.count(testLists.Usage))
	require.Equal(t, 1, remote.count(testLists.StockChecks))
	require.Equal(t, 1, remote.count(testLists.Payments))

	got, err := store.UsageByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, localstore.StatusSynced, got.SyncStatus)
	require.NotEmpty(t, got.RemoteID)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	insertTestUsage(t, store, "excavator")

	_, err := engine.Sync(ctx)
	require.NoError(t, err)
	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Pushed)
	require.Equal(t, 1, remote.count(testLists.Usage))
	require.Equal(t, 1, remote.creates)
}

func TestSyncOfflineDefers(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, false)

	insertTestUsage(t, store, "excavator")

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.True(t, res.Deferred)
	require.Zero(t, remote.count(testLists.Usage))

	pending, err := store.PendingCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestSyncAuthFailureAbortsWholePass(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, err := localstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := New(store, remote, auth.StaticSource(""), testLists,
		func() bool { return true }, Hooks{}, nil)
	insertTestUsage(t, store, "excavator")

	_, err = engine.Sync(ctx)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, auth.ErrNoToken)
	require.Zero(t, remote.count(testLists.Usage))
}

func TestSyncRowFailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	bad := insertTestUsage(t, store, "dozer")
	good := insertTestUsage(t, store, "excavator")
	remote.failTitles[bad.UniqueKey] = true

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Pushed)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, res.Pending)

	gotGood, err := store.UsageByID(ctx, good.ID)
	require.NoError(t, err)
	require.Equal(t, localstore.StatusSynced, gotGood.SyncStatus)

	gotBad, err := store.UsageByID(ctx, bad.ID)
	require.NoError(t, err)
	require.Equal(t, localstore.StatusPending, gotBad.SyncStatus)

	// the failed row is retried on the next pass
	remote.failTitles = map[string]bool{}
	res, err = engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Pushed)
	require.Zero(t, res.Pending)
}

func TestSyncAdoptsRemoteItemByKey(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	entry := insertTestUsage(t, store, "excavator")
	// the remote already holds this row from a push whose id write-back
	// never landed locally
	seedID := remote.seed(testLists.Usage, map[string]any{"Title": entry.UniqueKey})

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Pushed)

	require.Equal(t, 1, remote.count(testLists.Usage), "no duplicate item created")
	require.Zero(t, remote.creates)
	require.Equal(t, 1, remote.updates)

	got, err := store.UsageByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, seedID, got.RemoteID)
}

func TestSyncAdoptsRemotePaymentByKey(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	require.NoError(t, store.PutPayment(ctx, &localstore.ClientPayment{
		Client: "acme", Date: "2026-08-30", Amount: decimal.NewFromInt(500),
	}))
	// the remote already holds this payment from a push whose id write-back
	// never landed locally
	seedID := remote.seed(testLists.Payments, map[string]any{
		"Title": localstore.PaymentKey("acme", "2026-08-30"),
	})

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Pushed)

	require.Equal(t, 1, remote.count(testLists.Payments), "no duplicate item created")
	require.Zero(t, remote.creates)
	require.Equal(t, 1, remote.updates)

	got, err := store.PaymentAt(ctx, "acme", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, seedID, got.RemoteID)
	require.Equal(t, localstore.StatusSynced, got.SyncStatus)
}

func TestSyncUpdatesRowsWithKnownRemoteID(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	entry := insertTestUsage(t, store, "excavator")
	_, err := engine.Sync(ctx)
	require.NoError(t, err)

	got, err := store.UsageByID(ctx, entry.ID)
	require.NoError(t, err)
	got.Quantity = 60
	require.NoError(t, store.UpdateUsage(ctx, got))

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Pushed)
	require.Equal(t, 1, remote.creates, "edit must not create a second item")
	require.Equal(t, 1, remote.updates)
}

func TestSyncDrainsDeletionQueue(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	entry := insertTestUsage(t, store, "excavator")
	_, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, remote.count(testLists.Usage))

	require.NoError(t, store.DeleteUsage(ctx, entry.ID, testLists.Usage))

	res, err := engine.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Deleted)
	require.Zero(t, remote.count(testLists.Usage))

	tombs, err := store.Tombstones(ctx)
	require.NoError(t, err)
	require.Empty(t, tombs)
}

func TestFullRefreshReplacesLocalState(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	// a pending local row that the refresh is allowed to discard
	insertTestUsage(t, store, "doomed")

	remote.seed(testLists.Usage, map[string]any{
		"Title":    "excavator-diesel-2026-08-29",
		"Date":     "2026-08-29T00:00:00Z",
		"Machine":  "excavator",
		"Resource": "diesel",
		"Quantity": "35",
		"Movement": "usage",
	})
	remote.seed(testLists.StockChecks, map[string]any{
		"Title":          "diesel-2026-08-29",
		"Date":           "2026-08-29T00:00:00Z",
		"Resource":       "diesel",
		"QuantityOnHand": "210.5",
	})
	remote.seed(testLists.Payments, map[string]any{
		"Title":  "acme-2026-08-29",
		"Date":   "2026-08-29T00:00:00Z",
		"Client": "acme",
		"Amount": "125.50",
	})

	require.NoError(t, engine.FullRefresh(ctx))

	usages, err := store.UsagesByDate(ctx, "2026-08-29")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	require.Equal(t, "excavator", usages[0].Machine)
	require.Equal(t, 35.0, usages[0].Quantity)
	require.Equal(t, localstore.StatusSynced, usages[0].SyncStatus)

	check, err := store.StockCheckAt(ctx, "diesel", "2026-08-29")
	require.NoError(t, err)
	require.Equal(t, 210.5, check.QuantityOnHand)

	payment, err := store.PaymentAt(ctx, "acme", "2026-08-29")
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(decimal.RequireFromString("125.50")))

	pending, err := store.PendingCount(ctx)
	require.NoError(t, err)
	require.Zero(t, pending, "the pending local row is gone")
}

func TestFullRefreshToleratesDuplicateRemotePayments(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	// two remote items for one (client, date), e.g. left behind by a client
	// that created without searching first
	remote.seed(testLists.Payments, map[string]any{
		"Title":  "acme-2026-08-30",
		"Date":   "2026-08-30T00:00:00Z",
		"Client": "acme",
		"Amount": "100",
	})
	remote.seed(testLists.Payments, map[string]any{
		"Title":  "acme-2026-08-30",
		"Date":   "2026-08-30T00:00:00Z",
		"Client": "acme",
		"Amount": "100",
	})

	require.NoError(t, engine.FullRefresh(ctx))

	payment, err := store.PaymentAt(ctx, "acme", "2026-08-30")
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(decimal.NewFromInt(100)))
}

func TestFullRefreshFetchFailureLeavesLocalIntact(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	entry := insertTestUsage(t, store, "survivor")
	remote.failLists[testLists.Sales] = true

	err := engine.FullRefresh(ctx)
	require.Error(t, err)

	got, err := store.UsageByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, "survivor", got.Machine)
}

func TestFullRefreshOfflineFails(t *testing.T) {
	remote := newFakeRemote()
	engine, _ := newTestEngine(t, remote, false)
	require.Error(t, engine.FullRefresh(context.Background()))
}

func TestFullRefreshClassifiesLegacyRows(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, true)

	// remote rows written before movement tagging carry no Movement field
	remote.seed(testLists.Usage, map[string]any{
		"Title":    "Livraison Total-diesel-2026-08-29",
		"Date":     "2026-08-29T00:00:00Z",
		"Machine":  "Livraison Total",
		"Resource": "diesel",
		"Quantity": "500",
	})

	require.NoError(t, engine.FullRefresh(ctx))

	usages, err := store.UsagesByDate(ctx, "2026-08-29")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	require.Equal(t, localstore.MovementDelivery, usages[0].Movement)
}

var errBoom = errors.New("boom")

type failingTokens struct{}

func (failingTokens) AccessToken(ctx context.Context) (string, error) { return "", errBoom }

func TestFullRefreshAuthFailureAborts(t *testing.T) {
	remote := newFakeRemote()
	store, err := localstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := New(store, remote, failingTokens{}, testLists,
		func() bool { return true }, Hooks{}, nil)

	err = engine.FullRefresh(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, errBoom)
}
