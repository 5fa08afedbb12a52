// Copyright 2026 The quarrylog Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "field-device",
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStaticSourceEmptyIsError(t *testing.T) {
	_, err := StaticSource("").AccessToken(context.Background())
	require.ErrorIs(t, err, ErrNoToken)

	tok, err := StaticSource("abc").AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", tok)
}

func TestCachingSourceReusesUntilExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, now.Add(10*time.Minute))

	calls := 0
	src := NewCaching(FuncSource(func(ctx context.Context) (string, error) {
		calls++
		return token, nil
	}))
	src.now = func() time.Time { return now }

	for range 3 {
		got, err := src.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, token, got)
	}
	require.Equal(t, 1, calls)

	// inside the leeway window the delegate is consulted again
	now = now.Add(10*time.Minute - 10*time.Second)
	_, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCachingSourceOpaqueTokenReusedUntilInvalidated(t *testing.T) {
	calls := 0
	src := NewCaching(FuncSource(func(ctx context.Context) (string, error) {
		calls++
		return "opaque-token", nil
	}))

	_, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	_, err = src.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	src.Invalidate()
	_, err = src.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCachingSourcePropagatesDelegateError(t *testing.T) {
	src := NewCaching(StaticSource(""))
	_, err := src.AccessToken(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}
