// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth adapts the external identity provider to the rest of the
// core. The provider's protocol is not our business; we only need a bearer
// token before any sync attempt, and a sensible policy for reusing one.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken means no credential is available; a sync attempt must abort
// before touching any row.
var ErrNoToken = errors.New("auth: no access token available")

// TokenSource supplies bearer tokens for the remote list store.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticSource returns a fixed token handed over by the identity broker
// (environment, config file). An empty token yields ErrNoToken.
type StaticSource string

func (s StaticSource) AccessToken(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// FuncSource adapts a function to a TokenSource.
type FuncSource func(ctx context.Context) (string, error)

func (f FuncSource) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

// CachingSource wraps a delegate and reuses its token until the JWT exp claim
// is within the leeway window, sparing the identity provider a round-trip on
// every request in a sync pass.
type CachingSource struct {
	delegate TokenSource
	leeway   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewCaching(delegate TokenSource) *CachingSource {
	return &CachingSource{
		delegate: delegate,
		leeway:   30 * time.Second,
		now:      time.Now,
	}
}

func (c *CachingSource) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && (c.expiresAt.IsZero() || c.now().Add(c.leeway).Before(c.expiresAt)) {
		return c.token, nil
	}

	token, err := c.delegate.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expiresAt = tokenExpiry(token)
	return token, nil
}

// Invalidate drops the cached token, forcing the next call to the delegate.
func (c *CachingSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// tokenExpiry reads the exp claim without verifying the signature; the remote
// store verifies, we only schedule refreshes. Opaque tokens get a zero expiry
// and are reused until invalidated.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Ensure interfaces stay satisfied.
var (
	_ TokenSource = StaticSource("")
	_ TokenSource = (*CachingSource)(nil)
	_ TokenSource = FuncSource(nil)
)
