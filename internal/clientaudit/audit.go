// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package clientaudit cleans up client names on the remote sales list.
// Free-text entry accumulates casing variants and one-letter typos of the
// same client; the auditor surfaces them and the merge rewrites every
// affected sale, remote first, then the local mirror.
package clientaudit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"quarrylog/internal/remotelist"
)

// maxTypoDistance is the edit distance up to which two distinct client names
// are flagged as a likely typo pair.
const maxTypoDistance = 2

// requiredSaleFields are the sale fields that must be present and non-blank
// for the row to be considered complete. Comment is deliberately optional.
var requiredSaleFields = []string{"Client", "Product", "Quantity", "Date", "AmountPaid"}

// Remote is the slice of the list client the auditor needs: a full read of
// the sales list and per-item field patches.
type Remote interface {
	ListItems(ctx context.Context, listID string) ([]remotelist.Item, error)
	UpdateItem(ctx context.Context, listID, itemID string, fields map[string]any) error
}

// Store is the local side of a merge.
type Store interface {
	RenameSalesClient(ctx context.Context, variants []string, target string) (int64, error)
}

// VariantGroup is a set of spellings that normalize to the same client name
// (case and surrounding whitespace ignored).
type VariantGroup struct {
	Normalized string
	Variants   []string
}

// TypoPair is two distinct normalized client names within edit distance
// maxTypoDistance of each other.
type TypoPair struct {
	A, B     string
	Distance int
}

// FlaggedItem is a remote sale item with required fields missing or blank.
type FlaggedItem struct {
	ItemID  string
	Client  string
	Missing []string
}

// Report is the outcome of one audit pass over the sales list.
type Report struct {
	Clients  []string
	Variants []VariantGroup
	Typos    []TypoPair
	Flagged  []FlaggedItem
}

// Auditor inspects and repairs client names on the remote sales list.
type Auditor struct {
	remote Remote
	store  Store
	listID string
	logger *slog.Logger
}

func New(store Store, remote Remote, listID string, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{remote: remote, store: store, listID: listID, logger: logger}
}

// Audit reads the whole sales list and reports spelling variants, likely
// typo pairs and rows with missing required fields. It changes nothing.
func (a *Auditor) Audit(ctx context.Context) (*Report, error) {
	items, err := a.remote.ListItems(ctx, a.listID)
	if err != nil {
		return nil, fmt.Errorf("clientaudit: list sales: %w", err)
	}

	report := &Report{}
	groups := make(map[string]map[string]bool)
	for _, item := range items {
		if missing := missingFields(item); len(missing) > 0 {
			report.Flagged = append(report.Flagged, FlaggedItem{
				ItemID:  item.ID,
				Client:  fieldString(item, "Client"),
				Missing: missing,
			})
		}
		client := fieldString(item, "Client")
		if client == "" {
			continue
		}
		norm := normalize(client)
		if groups[norm] == nil {
			groups[norm] = make(map[string]bool)
		}
		groups[norm][client] = true
	}

	normalized := make([]string, 0, len(groups))
	for norm, variants := range groups {
		normalized = append(normalized, norm)
		if len(variants) > 1 {
			report.Variants = append(report.Variants, VariantGroup{
				Normalized: norm,
				Variants:   sortedKeys(variants),
			})
		}
	}
	sort.Strings(normalized)
	report.Clients = normalized
	sort.Slice(report.Variants, func(i, j int) bool {
		return report.Variants[i].Normalized < report.Variants[j].Normalized
	})

	for i := 0; i < len(normalized); i++ {
		for j := i + 1; j < len(normalized); j++ {
			d := levenshtein.ComputeDistance(normalized[i], normalized[j])
			if d > 0 && d <= maxTypoDistance {
				report.Typos = append(report.Typos, TypoPair{
					A: normalized[i], B: normalized[j], Distance: d,
				})
			}
		}
	}

	a.logger.Info("client audit complete",
		"clients", len(report.Clients),
		"variantGroups", len(report.Variants),
		"typoPairs", len(report.Typos),
		"flagged", len(report.Flagged))
	return report, nil
}

// Merge rewrites every sale whose client matches one of the variants to the
// target spelling: the remote items are patched first, then the local rows in
// one statement. A failed patch aborts before the local rewrite; re-running
// the merge picks up the remaining items since already-patched ones no longer
// match. Returns how many remote items were patched.
func (a *Auditor) Merge(ctx context.Context, variants []string, target string) (int, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return 0, fmt.Errorf("clientaudit: merge target must not be empty")
	}
	match := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v != target {
			match[v] = true
		}
	}
	if len(match) == 0 {
		return 0, nil
	}

	items, err := a.remote.ListItems(ctx, a.listID)
	if err != nil {
		return 0, fmt.Errorf("clientaudit: list sales: %w", err)
	}

	patched := 0
	for _, item := range items {
		if !match[fieldString(item, "Client")] {
			continue
		}
		err := a.remote.UpdateItem(ctx, a.listID, item.ID, map[string]any{"Client": target})
		if err != nil {
			return patched, fmt.Errorf("clientaudit: patch item %s: %w", item.ID, err)
		}
		patched++
	}

	renamed, err := a.store.RenameSalesClient(ctx, sortedKeys(match), target)
	if err != nil {
		return patched, err
	}
	a.logger.Info("clients merged",
		"target", target, "remotePatched", patched, "localRenamed", renamed)
	return patched, nil
}

func normalize(client string) string {
	return strings.ToLower(strings.TrimSpace(client))
}

func missingFields(item remotelist.Item) []string {
	var missing []string
	for _, f := range requiredSaleFields {
		v, ok := item.Fields[f]
		if !ok || v == nil {
			missing = append(missing, f)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func fieldString(item remotelist.Item, name string) string {
	s, _ := item.Fields[name].(string)
	return strings.TrimSpace(s)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
