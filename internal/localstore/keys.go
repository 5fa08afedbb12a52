// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"fmt"

	"github.com/google/uuid"
)

// uniqueKey builders. The key is the business-level identity of one logical
// record; it doubles as the remote item's title field and is what the sync
// engine searches for when a remote id was obtained but never committed
// locally.

// UsageKey identifies one (machine, resource, date) movement.
func UsageKey(machine, resource, date string) string {
	return fmt.Sprintf("%s-%s-%s", machine, resource, date)
}

// MileageKey identifies a machine-only row recorded for odometer readings
// when no resource moved. The random fragment allows several such rows per
// machine per day.
func MileageKey(machine, date string) string {
	return fmt.Sprintf("mileage-%s-%s-%s", machine, date, uuid.NewString()[:8])
}

// ProductionKey identifies one production trip record.
func ProductionKey(truck, date string) string {
	return fmt.Sprintf("production-%s-%s-%s", truck, date, uuid.NewString()[:8])
}

// DebrisKey identifies one debris-haul record.
func DebrisKey(truck, date string) string {
	return fmt.Sprintf("debris-%s-%s-%s", truck, date, uuid.NewString()[:8])
}

// SaleKey identifies one sale record.
func SaleKey(client, date string) string {
	return fmt.Sprintf("sale-%s-%s-%s", client, date, uuid.NewString()[:8])
}

// PaymentKey is deterministic: one payment record per client per day.
func PaymentKey(client, date string) string {
	return fmt.Sprintf("%s-%s", client, date)
}

// StockCheckKey is deterministic: one checkpoint per resource per day.
func StockCheckKey(resource, date string) string {
	return fmt.Sprintf("%s-%s", resource, date)
}
