// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package clientaudit

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"quarrylog/internal/localstore"
	"quarrylog/internal/remotelist"
)

const testSalesList = "list-sales"

type fakeSalesList struct {
	items   []remotelist.Item
	listErr error

	failItems map[string]bool // UpdateItem for these ids fails
	patches   map[string]map[string]any
}

func (f *fakeSalesList) ListItems(ctx context.Context, listID string) ([]remotelist.Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeSalesList) UpdateItem(ctx context.Context, listID, itemID string, fields map[string]any) error {
	if f.failItems[itemID] {
		return errors.New("patch rejected")
	}
	if f.patches == nil {
		f.patches = make(map[string]map[string]any)
	}
	f.patches[itemID] = fields
	return nil
}

func saleItem(id, client string) remotelist.Item {
	return remotelist.Item{ID: id, Fields: map[string]any{
		"Title":      "sale-" + client + "-2026-08-30-abcd1234",
		"Client":     client,
		"Product":    "gravel",
		"Quantity":   "3",
		"Date":       "2026-08-30T00:00:00Z",
		"AmountPaid": "150",
	}}
}

func newTestAuditor(t *testing.T, remote Remote) (*Auditor, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, remote, testSalesList, nil), store
}

func TestAuditGroupsSpellingVariants(t *testing.T) {
	remote := &fakeSalesList{items: []remotelist.Item{
		saleItem("1", "Acme"),
		saleItem("2", "acme"),
		saleItem("3", " ACME "),
		saleItem("4", "Bedrock"),
	}}
	auditor, _ := newTestAuditor(t, remote)

	report, err := auditor.Audit(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"acme", "bedrock"}, report.Clients)
	require.Len(t, report.Variants, 1)
	require.Equal(t, "acme", report.Variants[0].Normalized)
	require.ElementsMatch(t, []string{"Acme", "acme", "ACME"}, report.Variants[0].Variants)
}

func TestAuditFlagsNearDuplicateNames(t *testing.T) {
	remote := &fakeSalesList{items: []remotelist.Item{
		saleItem("1", "bedrock"),
		saleItem("2", "bedrok"), // one letter off
		saleItem("3", "quarrytown"),
	}}
	auditor, _ := newTestAuditor(t, remote)

	report, err := auditor.Audit(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Typos, 1)
	require.Equal(t, "bedrock", report.Typos[0].A)
	require.Equal(t, "bedrok", report.Typos[0].B)
	require.Equal(t, 1, report.Typos[0].Distance)
}

func TestAuditFlagsIncompleteSales(t *testing.T) {
	incomplete := remotelist.Item{ID: "9", Fields: map[string]any{
		"Title":   "sale-acme-2026-08-30-abcd1234",
		"Client":  "acme",
		"Product": "  ", // blank counts as missing
		"Date":    "2026-08-30T00:00:00Z",
	}}
	remote := &fakeSalesList{items: []remotelist.Item{saleItem("1", "acme"), incomplete}}
	auditor, _ := newTestAuditor(t, remote)

	report, err := auditor.Audit(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Flagged, 1)
	require.Equal(t, "9", report.Flagged[0].ItemID)
	require.ElementsMatch(t, []string{"Product", "Quantity", "AmountPaid"}, report.Flagged[0].Missing)
}

func TestMergePatchesRemoteAndRenamesLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSalesList{items: []remotelist.Item{
		saleItem("1", "Acme"),
		saleItem("2", "acme"),
		saleItem("3", "bedrock"),
	}}
	auditor, store := newTestAuditor(t, remote)

	for _, client := range []string{"Acme", "bedrock"} {
		require.NoError(t, store.InsertSale(ctx, &localstore.SaleEntry{
			UniqueKey: localstore.SaleKey(client, "2026-08-30"),
			Date:      "2026-08-30", Client: client, Product: "gravel",
			Quantity: 3, AmountPaid: decimal.NewFromInt(150),
		}))
	}

	patched, err := auditor.Merge(ctx, []string{"Acme", "acme"}, "acme")
	require.NoError(t, err)
	require.Equal(t, 1, patched, "the target spelling itself is left alone")
	require.Equal(t, map[string]any{"Client": "acme"}, remote.patches["1"])

	sales, err := store.SalesForClient(ctx, "acme", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, sales, 1)

	untouched, err := store.SalesForClient(ctx, "bedrock", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, untouched, 1)
}

func TestMergePatchFailureLeavesLocalUntouched(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSalesList{
		items:     []remotelist.Item{saleItem("1", "Acme")},
		failItems: map[string]bool{"1": true},
	}
	auditor, store := newTestAuditor(t, remote)

	require.NoError(t, store.InsertSale(ctx, &localstore.SaleEntry{
		UniqueKey: localstore.SaleKey("Acme", "2026-08-30"),
		Date:      "2026-08-30", Client: "Acme", Product: "gravel",
		Quantity: 3, AmountPaid: decimal.NewFromInt(150),
	}))

	_, err := auditor.Merge(ctx, []string{"Acme"}, "acme")
	require.Error(t, err)

	sales, err := store.SalesForClient(ctx, "Acme", "2026-08-30")
	require.NoError(t, err)
	require.Len(t, sales, 1, "local rename waits for the remote patches")
}

func TestMergeRejectsEmptyTarget(t *testing.T) {
	auditor, _ := newTestAuditor(t, &fakeSalesList{})
	_, err := auditor.Merge(context.Background(), []string{"Acme"}, "  ")
	require.Error(t, err)
}
