// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sync status values. A row at StatusPending carries local changes that have
// not been confirmed by the remote list store; StatusSynced means the last
// round-trip succeeded and RemoteID is set.
const (
	StatusPending = 0
	StatusSynced  = 1
)

// MovementKind classifies how a usage entry affects the stock ledger.
// It is assigned once, when the entry is created, instead of being re-derived
// from the machine name on every ledger computation.
type MovementKind string

const (
	MovementDelivery MovementKind = "delivery"
	MovementUsage    MovementKind = "usage"
)

// DefaultDeliveryMarker is the machine-name prefix that historically marked
// delivery trucks in the field ("livraison ...").
const DefaultDeliveryMarker = "livraison"

// ClassifyMachine returns the movement kind for a machine name. A name that
// starts with the delivery marker (case-insensitive) is a delivery; everything
// else consumes stock.
func ClassifyMachine(machine, deliveryMarker string) MovementKind {
	if deliveryMarker == "" {
		deliveryMarker = DefaultDeliveryMarker
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(machine)), strings.ToLower(deliveryMarker)) {
		return MovementDelivery
	}
	return MovementUsage
}

// UsageEntry records one machine's resource consumption or delivery for a day,
// plus its odometer readings. Resource may be empty for mileage-only rows.
type UsageEntry struct {
	ID         int64
	UniqueKey  string
	Date       string // civil day, YYYY-MM-DD
	Machine    string
	Zone       string
	Resource   string
	Quantity   float64
	MeterStart float64
	MeterEnd   float64
	Notes      string
	Movement   MovementKind
	SyncStatus int
	RemoteID   string
}

// StockCheck is a measured ground-truth stock level for (Resource, Date).
// The pair is the primary key: at most one checkpoint per resource per day.
type StockCheck struct {
	Resource       string
	Date           string
	QuantityOnHand float64
	SyncStatus     int
	RemoteID       string
}

// ProductionEntry records tonnage hauled by one truck between two zones.
type ProductionEntry struct {
	ID          int64
	UniqueKey   string
	Date        string
	Truck       string
	Weight      float64 // tonnes
	Trips       int
	Origin      string
	Destination string
	Comment     string
	SyncStatus  int
	RemoteID    string
}

// DebrisEntry records debris-hauling trips for one truck on one day.
type DebrisEntry struct {
	ID         int64
	UniqueKey  string
	Date       string
	Truck      string
	Trips      int
	Comment    string
	SyncStatus int
	RemoteID   string
}

// SaleEntry records a sale of product to a client.
type SaleEntry struct {
	ID         int64
	UniqueKey  string
	Date       string
	Client     string
	Product    string
	Quantity   float64
	AmountPaid decimal.Decimal
	Comment    string
	SyncStatus int
	RemoteID   string
}

// ClientPayment is keyed by (Client, Date): one payment record per client per
// day, written as an upsert.
type ClientPayment struct {
	Client     string
	Date       string
	Amount     decimal.Decimal
	SyncStatus int
	RemoteID   string
}

// Machine is read-only reference data mirrored from the remote list store and
// replaced wholesale on every refresh.
type Machine struct {
	RemoteID    string
	Code        string
	DisplayName string
	Location    string
	MachineType string
	Active      bool
}

// Tombstone marks a remote list item that must still be deleted remotely
// after its local row was removed.
type Tombstone struct {
	ID       int64
	RemoteID string
	ListID   string
}
