// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"time"
)

// Provider is the remote storage service as seen by a Session.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Handshake establishes contact with the service.
	Handshake(ctx context.Context) error

	// Authorize obtains the account authorization uploads need.
	Authorize(ctx context.Context) error

	// ApproveOperators grants the service's operators permission to
	// act on the account's stored data.
	ApproveOperators(ctx context.Context) error

	// CreateStorage selects a storage provider and resolves (or
	// creates) the proof set new data is added to.
	CreateStorage(ctx context.Context) (StorageContext, error)

	// Balance reports the account's balance as a decimal string.
	Balance(ctx context.Context) (string, error)

	// Deposit adds a decimal amount to the account.
	Deposit(ctx context.Context, amount string) error
}

// StorageContext identifies where a session's uploads are placed.
type StorageContext struct {
	ProviderID string    `json:"providerId"`
	ServiceURL string    `json:"serviceUrl"`
	ProofSetID string    `json:"proofSetId"`
	CreatedAt  time.Time `json:"createdAt"`
}
