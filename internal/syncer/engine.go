// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer pushes locally stored entries to the remote list store and
// drains the deletion queue. Sync is bidirectional only in the sense that a
// full refresh replaces local state from the remote; the steady-state path is
// upload-only per table.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"quarrylog/internal/localstore"
	"quarrylog/internal/remotelist"
)

// Remote is the slice of the list store client the engine depends on.
type Remote interface {
	ListItems(ctx context.Context, listID string) ([]remotelist.Item, error)
	CreateItem(ctx context.Context, listID string, fields map[string]any) (string, error)
	UpdateItem(ctx context.Context, listID, itemID string, fields map[string]any) error
	DeleteItem(ctx context.Context, listID, itemID string) error
	FindByTitle(ctx context.Context, listID, title string) (id string, found bool, err error)
}

// TokenSource mirrors auth.TokenSource; a failure here aborts the whole pass.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ListIDs names the remote list backing each local table.
type ListIDs struct {
	Usage       string
	StockChecks string
	Production  string
	Debris      string
	Sales       string
	Payments    string
}

// Hooks receives progress callbacks. Either field may be nil.
type Hooks struct {
	OnStatus       func(msg string, online bool)
	OnPendingCount func(n int)
}

// Result summarizes one sync pass.
type Result struct {
	Deferred bool // offline, nothing attempted
	Pushed   int
	Deleted  int
	Failed   int
	Pending  int // rows still unsynced after the pass
}

// AuthError marks a pass aborted before any rows were touched because no
// access token could be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("sync aborted: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// Engine runs sync passes against a single local store and remote site.
type Engine struct {
	store  *localstore.Store
	remote Remote
	tokens TokenSource
	lists  ListIDs
	online func() bool
	hooks  Hooks
	logger *slog.Logger
}

func New(store *localstore.Store, remote Remote, tokens TokenSource, lists ListIDs, online func() bool, hooks Hooks, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		remote: remote,
		tokens: tokens,
		lists:  lists,
		online: online,
		hooks:  hooks,
		logger: logger,
	}
}

// Sync runs one upload pass. Offline it defers without error. A token
// acquisition failure aborts the pass with *AuthError before anything is
// sent. Tables and the deletion queue are processed concurrently; rows within
// a table stay sequential so per-table ordering is preserved. A row failure
// is logged and skipped, never fatal: the row remains pending for the next
// pass.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	if e.online != nil && !e.online() {
		e.status("offline - sync deferred", false)
		return &Result{Deferred: true}, nil
	}

	if _, err := e.tokens.AccessToken(ctx); err != nil {
		e.status("authentication failed", true)
		return nil, &AuthError{Err: err}
	}

	e.status("syncing...", true)

	specs := e.tableSpecs()

	// Independent goroutines, no shared cancellation: one table failing
	// must not abandon rows the other tables could still push.
	g := new(errgroup.Group)
	results := make([]tableResult, len(specs))
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = e.syncTable(ctx, spec)
			return nil
		})
	}

	var deleted, deleteFailed int
	g.Go(func() error {
		deleted, deleteFailed = e.drainDeletions(ctx)
		return nil
	})
	_ = g.Wait()

	res := &Result{Deleted: deleted, Failed: deleteFailed}
	for _, tr := range results {
		res.Pushed += tr.pushed
		res.Failed += tr.failed
	}

	pending, err := e.store.PendingCount(ctx)
	if err != nil {
		e.logger.Warn("pending recount failed", "err", err)
	} else {
		res.Pending = pending
		if e.hooks.OnPendingCount != nil {
			e.hooks.OnPendingCount(pending)
		}
	}

	if res.Failed > 0 {
		e.status(fmt.Sprintf("sync finished with %d failures", res.Failed), true)
	} else {
		e.status("sync complete", true)
	}
	e.logger.Info("sync pass finished",
		"pushed", res.Pushed, "deleted", res.Deleted,
		"failed", res.Failed, "pending", res.Pending)
	return res, nil
}

type tableResult struct {
	pushed int
	failed int
}

func (e *Engine) syncTable(ctx context.Context, spec tableSpec) tableResult {
	rows, err := spec.pending(ctx)
	if err != nil {
		e.logger.Error("loading pending rows failed", "table", spec.name, "err", err)
		return tableResult{}
	}

	var res tableResult
	for _, r := range rows {
		if err := e.syncRow(ctx, spec, r); err != nil {
			res.failed++
			e.logger.Warn("row sync failed", "table", spec.name, "key", r.uniqueKey, "err", err)
			continue
		}
		res.pushed++
	}
	return res
}

// syncRow pushes a single pending row. A row that lost its remote id (fresh
// insert, or a device restore) is first looked up by its unique key so we
// adopt the existing remote item instead of creating a duplicate. Stock
// checks skip the search; every other table runs it.
func (e *Engine) syncRow(ctx context.Context, spec tableSpec, r row) error {
	remoteID := r.remoteID
	if remoteID == "" && spec.searchByKey {
		id, found, err := e.remote.FindByTitle(ctx, spec.listID, r.uniqueKey)
		if err != nil {
			return fmt.Errorf("lookup %q: %w", r.uniqueKey, err)
		}
		if found {
			remoteID = id
		}
	}

	if remoteID == "" {
		id, err := e.remote.CreateItem(ctx, spec.listID, r.fields)
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}
		remoteID = id
	} else {
		if err := e.remote.UpdateItem(ctx, spec.listID, remoteID, r.fields); err != nil {
			return fmt.Errorf("update %s: %w", remoteID, err)
		}
	}

	// Status and remote id move together so a crash between the remote
	// write and here leaves the row pending, never half-marked.
	if err := r.markSynced(ctx, remoteID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// drainDeletions works through the tombstone queue. A 404 from the remote
// counts as success: the item is gone either way.
func (e *Engine) drainDeletions(ctx context.Context) (deleted, failed int) {
	tombs, err := e.store.Tombstones(ctx)
	if err != nil {
		e.logger.Error("loading deletion queue failed", "err", err)
		return 0, 0
	}

	for _, t := range tombs {
		if err := e.remote.DeleteItem(ctx, t.ListID, t.RemoteID); err != nil {
			failed++
			e.logger.Warn("remote delete failed", "remote_id", t.RemoteID, "err", err)
			continue
		}
		if err := e.store.RemoveTombstone(ctx, t.ID); err != nil {
			failed++
			e.logger.Warn("dequeue tombstone failed", "id", t.ID, "err", err)
			continue
		}
		deleted++
	}
	return deleted, failed
}

func (e *Engine) status(msg string, online bool) {
	if e.hooks.OnStatus != nil {
		e.hooks.OnStatus(msg, online)
	}
}

var _ error = (*AuthError)(nil)
