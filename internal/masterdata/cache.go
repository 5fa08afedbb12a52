// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package masterdata mirrors the remote machine reference list. Startup is
// cache-first so the app works offline; a background refresh replaces the
// mirror when connectivity allows.
package masterdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quarrylog/internal/localstore"
	"quarrylog/internal/remotelist"
)

// Store is the slice of the local store the cache persists into.
type Store interface {
	Machines(ctx context.Context) ([]localstore.Machine, error)
	ReplaceMachines(ctx context.Context, machines []localstore.Machine) error
}

// Lister is the remote read the cache depends on.
type Lister interface {
	ListItems(ctx context.Context, listID string) ([]remotelist.Item, error)
}

// Cache keeps an in-memory copy of the machine list, backed by the local
// store and refreshed from the remote list store.
type Cache struct {
	store      Store
	remote     Lister
	listID     string
	online     func() bool
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration

	mu       sync.RWMutex
	machines []localstore.Machine
	ready    bool
}

func New(store Store, remote Lister, listID string, online func() bool, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:      store,
		remote:     remote,
		listID:     listID,
		online:     online,
		logger:     logger,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

// Initialize loads machines from the local cache (fast, no network) and marks
// the cache ready. If the device is online, a background refresh is kicked
// off that never blocks the caller.
func (c *Cache) Initialize(ctx context.Context) error {
	machines, err := c.store.Machines(ctx)
	if err != nil {
		return fmt.Errorf("masterdata: load cache: %w", err)
	}

	c.mu.Lock()
	c.machines = machines
	c.ready = true
	c.mu.Unlock()
	c.logger.Info("master data loaded from cache", "machines", len(machines))

	if c.online != nil && c.online() {
		go func() {
			if err := c.Refresh(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("background master data refresh failed", "err", err)
			}
		}()
	}
	return nil
}

// Refresh pulls the full remote machine list (all pages) and replaces the
// local mirror atomically. Transient failures are retried a fixed number of
// times with a fixed delay; once the budget is spent the previous cache is
// left intact and the last error is returned.
func (c *Cache) Refresh(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, c.retryDelay); err != nil {
				return err
			}
			c.logger.Info("retrying master data refresh", "attempt", attempt+1)
		}

		machines, err := c.fetch(ctx)
		if err != nil {
			lastErr = err
			c.logger.Warn("master data fetch failed", "attempt", attempt+1, "err", err)
			continue
		}

		if err := c.store.ReplaceMachines(ctx, machines); err != nil {
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.machines = machines
		c.mu.Unlock()
		c.logger.Info("master data refreshed", "machines", len(machines))
		return nil
	}
	return fmt.Errorf("masterdata: refresh failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Machines filters the last successfully loaded set in memory.
func (c *Cache) Machines(activeOnly bool) []localstore.Machine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]localstore.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FindByCode looks up a machine by its identifier code.
func (c *Cache) FindByCode(code string) (localstore.Machine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.machines {
		if m.Code == code {
			return m, true
		}
	}
	return localstore.Machine{}, false
}

// Ready reports whether Initialize has completed.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Cache) fetch(ctx context.Context) ([]localstore.Machine, error) {
	items, err := c.remote.ListItems(ctx, c.listID)
	if err != nil {
		return nil, err
	}

	machines := make([]localstore.Machine, 0, len(items))
	for _, item := range items {
		m := machineFromItem(item)
		if m.Code == "" {
			continue // unusable without an identifier code
		}
		machines = append(machines, m)
	}
	return machines, nil
}

func machineFromItem(item remotelist.Item) localstore.Machine {
	code := fieldString(item.Fields, "Code", "Title")
	display := fieldString(item.Fields, "DisplayName", "Title")
	if display == "" {
		display = code
	}
	return localstore.Machine{
		RemoteID:    item.ID,
		Code:        code,
		DisplayName: display,
		Location:    fieldString(item.Fields, "Location"),
		MachineType: fieldString(item.Fields, "MachineType"),
		Active:      fieldBool(item.Fields, "Active"),
	}
}

func fieldString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func fieldBool(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		return v == "1" || v == "true"
	default:
		return false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
