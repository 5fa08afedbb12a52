// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"quarrylog/internal/localstore"
	"quarrylog/internal/remotelist"
)

// FullRefresh discards all local transactional data and repopulates it from
// the remote lists. Every list is fetched before anything local is touched,
// and the replacement happens in a single transaction, so a mid-refresh
// failure leaves local state exactly as it was. The deletion queue is cleared
// too: the remote is the source of truth after a refresh.
func (e *Engine) FullRefresh(ctx context.Context) error {
	if e.online != nil && !e.online() {
		return fmt.Errorf("full refresh requires connectivity")
	}
	if _, err := e.tokens.AccessToken(ctx); err != nil {
		return &AuthError{Err: err}
	}

	e.status("refreshing from remote...", true)

	var (
		usageItems, checkItems, prodItems []remotelist.Item
		debrisItems, saleItems, payItems  []remotelist.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(listID string, dst *[]remotelist.Item) {
		g.Go(func() error {
			items, err := e.remote.ListItems(gctx, listID)
			if err != nil {
				return fmt.Errorf("list %s: %w", listID, err)
			}
			*dst = items
			return nil
		})
	}
	fetch(e.lists.Usage, &usageItems)
	fetch(e.lists.StockChecks, &checkItems)
	fetch(e.lists.Production, &prodItems)
	fetch(e.lists.Debris, &debrisItems)
	fetch(e.lists.Sales, &saleItems)
	fetch(e.lists.Payments, &payItems)
	if err := g.Wait(); err != nil {
		e.status("refresh failed", true)
		return fmt.Errorf("full refresh: %w", err)
	}

	snap := &localstore.Snapshot{}
	for _, it := range usageItems {
		snap.Usages = append(snap.Usages, usageFromItem(it))
	}
	for _, it := range checkItems {
		if c, ok := stockCheckFromItem(it); ok {
			snap.StockChecks = append(snap.StockChecks, c)
		}
	}
	for _, it := range prodItems {
		snap.Production = append(snap.Production, productionFromItem(it))
	}
	for _, it := range debrisItems {
		snap.Debris = append(snap.Debris, debrisFromItem(it))
	}
	for _, it := range saleItems {
		snap.Sales = append(snap.Sales, saleFromItem(it))
	}
	for _, it := range payItems {
		if p, ok := paymentFromItem(it); ok {
			snap.Payments = append(snap.Payments, p)
		}
	}

	if err := e.store.ReplaceAll(ctx, snap); err != nil {
		e.status("refresh failed", true)
		return fmt.Errorf("full refresh: replace local data: %w", err)
	}

	if e.hooks.OnPendingCount != nil {
		e.hooks.OnPendingCount(0)
	}
	e.status("refresh complete", true)
	e.logger.Info("full refresh complete",
		"usages", len(snap.Usages), "stock_checks", len(snap.StockChecks),
		"production", len(snap.Production), "debris", len(snap.Debris),
		"sales", len(snap.Sales), "payments", len(snap.Payments))
	return nil
}

// Item-to-entity mapping. Remote field values arrive as whatever the list
// store stored (strings, JSON numbers), so coercion is tolerant: a missing
// or malformed numeric field becomes zero rather than failing the whole
// refresh. Everything pulled down is by definition already synced.

func usageFromItem(it remotelist.Item) localstore.UsageEntry {
	machine := fieldStr(it.Fields, "Machine")
	movement := localstore.MovementKind(fieldStr(it.Fields, "Movement"))
	if movement != localstore.MovementDelivery && movement != localstore.MovementUsage {
		// Older rows predate the movement column.
		movement = localstore.ClassifyMachine(machine, "")
	}
	return localstore.UsageEntry{
		UniqueKey:  fieldStr(it.Fields, "Title"),
		Date:       dateOnly(fieldStr(it.Fields, "Date")),
		Machine:    machine,
		Zone:       fieldStr(it.Fields, "Zone"),
		Resource:   fieldStr(it.Fields, "Resource"),
		Quantity:   fieldFloat(it.Fields, "Quantity"),
		MeterStart: fieldFloat(it.Fields, "MeterStart"),
		MeterEnd:   fieldFloat(it.Fields, "MeterEnd"),
		Notes:      fieldStr(it.Fields, "Notes"),
		Movement:   movement,
		SyncStatus: localstore.StatusSynced,
		RemoteID:   it.ID,
	}
}

func stockCheckFromItem(it remotelist.Item) (localstore.StockCheck, bool) {
	resource := fieldStr(it.Fields, "Resource")
	date := dateOnly(fieldStr(it.Fields, "Date"))
	if resource == "" || date == "" {
		return localstore.StockCheck{}, false
	}
	return localstore.StockCheck{
		Resource:       resource,
		Date:           date,
		QuantityOnHand: fieldFloat(it.Fields, "QuantityOnHand"),
		SyncStatus:     localstore.StatusSynced,
		RemoteID:       it.ID,
	}, true
}

func productionFromItem(it remotelist.Item) localstore.ProductionEntry {
	return localstore.ProductionEntry{
		UniqueKey:   fieldStr(it.Fields, "Title"),
		Date:        dateOnly(fieldStr(it.Fields, "Date")),
		Truck:       fieldStr(it.Fields, "Truck"),
		Weight:      fieldFloat(it.Fields, "Weight"),
		Trips:       fieldInt(it.Fields, "Trips"),
		Origin:      fieldStr(it.Fields, "Origin"),
		Destination: fieldStr(it.Fields, "Destination"),
		Comment:     fieldStr(it.Fields, "Comment"),
		SyncStatus:  localstore.StatusSynced,
		RemoteID:    it.ID,
	}
}

func debrisFromItem(it remotelist.Item) localstore.DebrisEntry {
	return localstore.DebrisEntry{
		UniqueKey:  fieldStr(it.Fields, "Title"),
		Date:       dateOnly(fieldStr(it.Fields, "Date")),
		Truck:      fieldStr(it.Fields, "Truck"),
		Trips:      fieldInt(it.Fields, "Trips"),
		Comment:    fieldStr(it.Fields, "Comment"),
		SyncStatus: localstore.StatusSynced,
		RemoteID:   it.ID,
	}
}

func saleFromItem(it remotelist.Item) localstore.SaleEntry {
	return localstore.SaleEntry{
		UniqueKey:  fieldStr(it.Fields, "Title"),
		Date:       dateOnly(fieldStr(it.Fields, "Date")),
		Client:     fieldStr(it.Fields, "Client"),
		Product:    fieldStr(it.Fields, "Product"),
		Quantity:   fieldFloat(it.Fields, "Quantity"),
		AmountPaid: fieldDecimal(it.Fields, "AmountPaid"),
		Comment:    fieldStr(it.Fields, "Comment"),
		SyncStatus: localstore.StatusSynced,
		RemoteID:   it.ID,
	}
}

func paymentFromItem(it remotelist.Item) (localstore.ClientPayment, bool) {
	client := fieldStr(it.Fields, "Client")
	date := dateOnly(fieldStr(it.Fields, "Date"))
	if client == "" || date == "" {
		return localstore.ClientPayment{}, false
	}
	return localstore.ClientPayment{
		Client:     client,
		Date:       date,
		Amount:     fieldDecimal(it.Fields, "Amount"),
		SyncStatus: localstore.StatusSynced,
		RemoteID:   it.ID,
	}, true
}

func fieldStr(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func fieldFloat(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func fieldInt(fields map[string]any, key string) int {
	return int(fieldFloat(fields, key))
}

func fieldDecimal(fields map[string]any, key string) decimal.Decimal {
	switch v := fields[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// dateOnly strips the time portion of an ISO timestamp, keeping YYYY-MM-DD.
func dateOnly(v string) string {
	if i := strings.IndexByte(v, 'T'); i > 0 {
		return v[:i]
	}
	return v
}
