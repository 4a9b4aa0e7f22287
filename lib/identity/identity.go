// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves the creator account that uploads are
// attributed to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

// FallbackCreatorID is attributed to uploads when no account can be
// resolved.
const FallbackCreatorID = "0x1234567890abcdef1234567890abcdef12345678"

// ErrNoAccount is returned by a Resolver with no connected account.
var ErrNoAccount = errors.New("no account connected")

// Resolver reports the current creator account.
type Resolver interface {
	CreatorID(ctx context.Context) (string, error)
}

// Static resolves to a fixed account. The empty Static has no
// account.
type Static string

func (s Static) CreatorID(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoAccount
	}
	return string(s), nil
}

// Resolution is the outcome of [Resolve].
type Resolution struct {
	ID string

	// Fallback is true when ID is FallbackCreatorID because the
	// resolver failed. Err then holds the cause.
	Fallback bool
	Err      error
}

// Resolve asks resolver for the creator account and falls back to
// FallbackCreatorID when it fails or is nil. The fallback is logged.
func Resolve(ctx context.Context, resolver Resolver, logger *slog.Logger) Resolution {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	err := ErrNoAccount
	if resolver != nil {
		var id string
		id, err = resolver.CreatorID(ctx)
		if err == nil && id != "" {
			return Resolution{ID: id}
		}
		if err == nil {
			err = ErrNoAccount
		}
	}
	logger.Warn("creator account unavailable, attributing upload to fallback",
		"fallback", FallbackCreatorID,
		"error", err,
	)
	return Resolution{ID: FallbackCreatorID, Fallback: true, Err: err}
}

var accountPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAccount checks that id looks like a 20-byte hex account
// address.
func ValidateAccount(id string) error {
	if !accountPattern.MatchString(id) {
		return fmt.Errorf("invalid creator account %q: want 0x followed by 40 hex digits", id)
	}
	return nil
}
