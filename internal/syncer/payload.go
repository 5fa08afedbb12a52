// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"strconv"

	"quarrylog/internal/localstore"
)

// tableSpec describes one local table from the engine's point of view:
// where its rows go, whether lost remote ids can be recovered by a title
// search, and how to enumerate the pending rows.
type tableSpec struct {
	name        string
	listID      string
	searchByKey bool
	pending     func(ctx context.Context) ([]row, error)
}

// row is a pending entry flattened for upload. markSynced writes the remote
// id and the synced status back in a single statement.
type row struct {
	uniqueKey  string
	remoteID   string
	fields     map[string]any
	markSynced func(ctx context.Context, remoteID string) error
}

func (e *Engine) tableSpecs() []tableSpec {
	return []tableSpec{
		{
			name:        "usage_entries",
			listID:      e.lists.Usage,
			searchByKey: true,
			pending:     e.pendingUsages,
		},
		{
			name:        "stock_checks",
			listID:      e.lists.StockChecks,
			searchByKey: false, // the one table exempt from key search
			pending:     e.pendingStockChecks,
		},
		{
			name:        "production_entries",
			listID:      e.lists.Production,
			searchByKey: true,
			pending:     e.pendingProduction,
		},
		{
			name:        "debris_entries",
			listID:      e.lists.Debris,
			searchByKey: true,
			pending:     e.pendingDebris,
		},
		{
			name:        "sales",
			listID:      e.lists.Sales,
			searchByKey: true,
			pending:     e.pendingSales,
		},
		{
			name:        "client_payments",
			listID:      e.lists.Payments,
			searchByKey: true,
			pending:     e.pendingPayments,
		},
	}
}

func (e *Engine) pendingUsages(ctx context.Context) ([]row, error) {
	entries, err := e.store.PendingUsages(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(entries))
	for _, u := range entries {
		rows = append(rows, row{
			uniqueKey: u.UniqueKey,
			remoteID:  u.RemoteID,
			fields:    usageFields(u),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkUsageSynced(ctx, u.ID, remoteID)
			},
		})
	}
	return rows, nil
}

func (e *Engine) pendingStockChecks(ctx context.Context) ([]row, error) {
	checks, err := e.store.PendingStockChecks(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, row{
			uniqueKey: localstore.StockCheckKey(c.Resource, c.Date),
			remoteID:  c.RemoteID,
			fields:    stockCheckFields(c),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkStockCheckSynced(ctx, c.Resource, c.Date, remoteID)
			},
		})
	}
	return rows, nil
}

func (e *Engine) pendingProduction(ctx context.Context) ([]row, error) {
	entries, err := e.store.PendingProduction(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(entries))
	for _, p := range entries {
		rows = append(rows, row{
			uniqueKey: p.UniqueKey,
			remoteID:  p.RemoteID,
			fields:    productionFields(p),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkProductionSynced(ctx, p.ID, remoteID)
			},
		})
	}
	return rows, nil
}

func (e *Engine) pendingDebris(ctx context.Context) ([]row, error) {
	entries, err := e.store.PendingDebris(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(entries))
	for _, d := range entries {
		rows = append(rows, row{
			uniqueKey: d.UniqueKey,
			remoteID:  d.RemoteID,
			fields:    debrisFields(d),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkDebrisSynced(ctx, d.ID, remoteID)
			},
		})
	}
	return rows, nil
}

func (e *Engine) pendingSales(ctx context.Context) ([]row, error) {
	entries, err := e.store.PendingSales(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(entries))
	for _, s := range entries {
		rows = append(rows, row{
			uniqueKey: s.UniqueKey,
			remoteID:  s.RemoteID,
			fields:    saleFields(s),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkSaleSynced(ctx, s.ID, remoteID)
			},
		})
	}
	return rows, nil
}

func (e *Engine) pendingPayments(ctx context.Context) ([]row, error) {
	entries, err := e.store.PendingPayments(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(entries))
	for _, p := range entries {
		rows = append(rows, row{
			uniqueKey: localstore.PaymentKey(p.Client, p.Date),
			remoteID:  p.RemoteID,
			fields:    paymentFields(p),
			markSynced: func(ctx context.Context, remoteID string) error {
				return e.store.MarkPaymentSynced(ctx, p.Client, p.Date, remoteID)
			},
		})
	}
	return rows, nil
}

// Field maps. Title always carries the unique key so remote rows stay
// addressable; dates go up as full ISO timestamps at midnight UTC because
// the list store's date columns expect datetimes.

func usageFields(u localstore.UsageEntry) map[string]any {
	f := map[string]any{
		"Title":      u.UniqueKey,
		"Date":       isoDate(u.Date),
		"Machine":    u.Machine,
		"Zone":       u.Zone,
		"Resource":   u.Resource,
		"Quantity":   formatFloat(u.Quantity),
		"Movement":   string(u.Movement),
		"MeterStart": formatFloat(u.MeterStart),
		"MeterEnd":   formatFloat(u.MeterEnd),
	}
	if u.Notes != "" {
		f["Notes"] = u.Notes
	}
	return f
}

func stockCheckFields(c localstore.StockCheck) map[string]any {
	return map[string]any{
		"Title":          localstore.StockCheckKey(c.Resource, c.Date),
		"Date":           isoDate(c.Date),
		"Resource":       c.Resource,
		"QuantityOnHand": formatFloat(c.QuantityOnHand),
	}
}

func productionFields(p localstore.ProductionEntry) map[string]any {
	f := map[string]any{
		"Title":       p.UniqueKey,
		"Date":        isoDate(p.Date),
		"Truck":       p.Truck,
		"Weight":      formatFloat(p.Weight),
		"Trips":       strconv.Itoa(p.Trips),
		"Origin":      p.Origin,
		"Destination": p.Destination,
	}
	if p.Comment != "" {
		f["Comment"] = p.Comment
	}
	return f
}

func debrisFields(d localstore.DebrisEntry) map[string]any {
	f := map[string]any{
		"Title": d.UniqueKey,
		"Date":  isoDate(d.Date),
		"Truck": d.Truck,
		"Trips": strconv.Itoa(d.Trips),
	}
	if d.Comment != "" {
		f["Comment"] = d.Comment
	}
	return f
}

func saleFields(s localstore.SaleEntry) map[string]any {
	f := map[string]any{
		"Title":      s.UniqueKey,
		"Date":       isoDate(s.Date),
		"Client":     s.Client,
		"Product":    s.Product,
		"Quantity":   formatFloat(s.Quantity),
		"AmountPaid": s.AmountPaid.String(),
	}
	if s.Comment != "" {
		f["Comment"] = s.Comment
	}
	return f
}

func paymentFields(p localstore.ClientPayment) map[string]any {
	return map[string]any{
		"Title":  localstore.PaymentKey(p.Client, p.Date),
		"Date":   isoDate(p.Date),
		"Client": p.Client,
		"Amount": p.Amount.String(),
	}
}

func isoDate(date string) string {
	return date + "T00:00:00Z"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
