// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package remotelist talks to the remote list store over HTTP REST. Each
// entity table maps to one remote list; items are flat field-maps with the
// uniqueKey in the Title field. The client follows continuation links on
// reads and treats deletes of already-gone items as success.
package remotelist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies bearer tokens. Acquisition failures abort the caller's
// whole operation; see the sync engine's auth gate.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// RequestError is a non-success response from the remote store. It stays
// scoped to the row that triggered it.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("remotelist: server returned status %d: %s", e.Status, e.Body)
}

// Item is one remote list item: opaque id plus the flat field-map.
type Item struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listPage struct {
	Value    []Item `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

type createResponse struct {
	ID string `json:"id"`
}

// Client is an HTTP client for one remote site's lists.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client for the site at baseURL (".../sites/{siteID}").
func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// ListItems reads a whole list, following continuation links until exhausted.
func (c *Client) ListItems(ctx context.Context, listID string) ([]Item, error) {
	next := fmt.Sprintf("%s/lists/%s/items?expand=fields", c.baseURL, url.PathEscape(listID))
	var items []Item
	for next != "" {
		var page listPage
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Value...)
		next = page.NextLink
	}
	return items, nil
}

// CreateItem posts a new item and returns the id the store assigned.
func (c *Client) CreateItem(ctx context.Context, listID string, fields map[string]any) (string, error) {
	endpoint := fmt.Sprintf("%s/lists/%s/items", c.baseURL, url.PathEscape(listID))
	var created createResponse
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"fields": fields}, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("remotelist: create returned no item id")
	}
	return created.ID, nil
}

// UpdateItem patches an existing item by id.
func (c *Client) UpdateItem(ctx context.Context, listID, itemID string, fields map[string]any) error {
	endpoint := fmt.Sprintf("%s/lists/%s/items/%s",
		c.baseURL, url.PathEscape(listID), url.PathEscape(itemID))
	return c.do(ctx, http.MethodPatch, endpoint, map[string]any{"fields": fields}, nil)
}

// DeleteItem removes an item by id. A 404 counts as success: remote deletes
// are idempotent, and the tombstone that drove this call must be consumed.
func (c *Client) DeleteItem(ctx context.Context, listID, itemID string) error {
	endpoint := fmt.Sprintf("%s/lists/%s/items/%s",
		c.baseURL, url.PathEscape(listID), url.PathEscape(itemID))
	err := c.do(ctx, http.MethodDelete, endpoint, nil, nil)
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
		c.logger.Debug("remote item already gone", "list", listID, "item", itemID)
		return nil
	}
	return err
}

// FindByTitle searches a list for the item whose title field equals title.
// Returns the id of the first match.
func (c *Client) FindByTitle(ctx context.Context, listID, title string) (id string, found bool, err error) {
	filter := fmt.Sprintf("fields/Title eq '%s'", strings.ReplaceAll(title, "'", "''"))
	endpoint := fmt.Sprintf("%s/lists/%s/items?expand=fields&$filter=%s",
		c.baseURL, url.PathEscape(listID), url.QueryEscape(filter))
	var page listPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return "", false, err
	}
	if len(page.Value) == 0 {
		return "", false, nil
	}
	return page.Value[0].ID, true, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remotelist: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("remotelist: create request: %w", err)
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("remotelist: acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remotelist: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("remotelist: decode response: %w", err)
		}
	}
	return nil
}
