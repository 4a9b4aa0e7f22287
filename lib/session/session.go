// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrInitFailed wraps handshake, authorization and storage
	// creation failures.
	ErrInitFailed = errors.New("storage session initialization failed")

	// ErrApprovalFailed wraps operator approval failures.
	ErrApprovalFailed = errors.New("operator approval failed")
)

// State is the session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FallbackBalance is reported when the provider cannot be asked.
const FallbackBalance = "0"

// BalanceSource says where a BalanceReading came from.
type BalanceSource string

const (
	BalanceReported BalanceSource = "reported"
	BalanceFallback BalanceSource = "fallback"
)

// BalanceReading is the result of [Session.Balance]. When Source is
// BalanceFallback, Amount is FallbackBalance and Err holds the cause.
type BalanceReading struct {
	Amount string
	Source BalanceSource
	Err    error
}

// Status is a point-in-time view of a session.
type Status struct {
	State    State           `json:"state"`
	Approved bool            `json:"approved"`
	Storage  *StorageContext `json:"storage,omitempty"`
}

// call is one in-flight attempt of a session step.
type call struct {
	done chan struct{}
	err  error
}

// Session is the explicit storage-session object. Create one per
// process (or per tenant) and share it; it is safe for concurrent use.
type Session struct {
	provider Provider
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	approved    bool
	storage     *StorageContext
	initCall    *call
	approveCall *call
	storageCall *call
}

// New returns an uninitialized Session over provider.
func New(provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{provider: provider, logger: logger}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current state, approval flag and storage
// context.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := Status{State: s.state, Approved: s.approved}
	if s.storage != nil {
		storage := *s.storage
		status.Storage = &storage
	}
	return status
}

// single runs fn unless complete reports the step already succeeded.
// A caller arriving while an attempt is in flight waits for it and
// returns its result. start and finish run under s.mu.
func (s *Session) single(ctx context.Context, slot **call, complete func() bool, start func(), fn func(context.Context) error, finish func(error)) error {
	s.mu.Lock()
	if complete() {
		s.mu.Unlock()
		return nil
	}
	if inflight := *slot; inflight != nil {
		s.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	attempt := &call{done: make(chan struct{})}
	*slot = attempt
	if start != nil {
		start()
	}
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	finish(err)
	*slot = nil
	attempt.err = err
	s.mu.Unlock()
	close(attempt.done)
	return err
}

// Initialize runs the handshake and authorization. It returns nil at
// once when the session is Ready. On failure the session returns to
// Uninitialized and a later call retries.
func (s *Session) Initialize(ctx context.Context) error {
	return s.single(ctx, &s.initCall,
		func() bool { return s.state == Ready },
		func() { s.state = Initializing },
		func(ctx context.Context) error {
			s.logger.Info("initializing storage session")
			if err := s.provider.Handshake(ctx); err != nil {
				return fmt.Errorf("%w: handshake: %w", ErrInitFailed, err)
			}
			if err := s.provider.Authorize(ctx); err != nil {
				return fmt.Errorf("%w: authorization: %w", ErrInitFailed, err)
			}
			return nil
		},
		func(err error) {
			if err != nil {
				s.state = Uninitialized
				s.logger.Error("storage session initialization failed", "error", err)
				return
			}
			s.state = Ready
			s.logger.Info("storage session ready")
		},
	)
}

// ApproveOperators initializes the session if needed, then approves
// the service operators once.
func (s *Session) ApproveOperators(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.single(ctx, &s.approveCall,
		func() bool { return s.approved },
		nil,
		func(ctx context.Context) error {
			s.logger.Info("approving storage operators")
			if err := s.provider.ApproveOperators(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrApprovalFailed, err)
			}
			return nil
		},
		func(err error) {
			if err != nil {
				s.logger.Error("operator approval failed", "error", err)
				return
			}
			s.approved = true
			s.logger.Info("storage operators approved")
		},
	)
}

// Storage returns the session's storage context, approving operators
// and creating the context on first use.
func (s *Session) Storage(ctx context.Context) (StorageContext, error) {
	if err := s.ApproveOperators(ctx); err != nil {
		return StorageContext{}, err
	}

	var created StorageContext
	err := s.single(ctx, &s.storageCall,
		func() bool { return s.storage != nil },
		nil,
		func(ctx context.Context) error {
			s.logger.Info("creating storage context")
			storage, err := s.provider.CreateStorage(ctx)
			if err != nil {
				return fmt.Errorf("%w: creating storage: %w", ErrInitFailed, err)
			}
			created = storage
			return nil
		},
		func(err error) {
			if err != nil {
				s.logger.Error("storage creation failed", "error", err)
				return
			}
			s.storage = &created
			s.logger.Info("storage context created",
				"provider_id", created.ProviderID,
				"proof_set_id", created.ProofSetID,
			)
		},
	)
	if err != nil {
		return StorageContext{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.storage, nil
}

// Balance reports the account balance. It never fails: when the
// session cannot be initialized or the provider errors, the reading
// falls back to FallbackBalance and carries the cause.
func (s *Session) Balance(ctx context.Context) BalanceReading {
	err := s.Initialize(ctx)
	if err == nil {
		var amount string
		amount, err = s.provider.Balance(ctx)
		if err == nil {
			return BalanceReading{Amount: amount, Source: BalanceReported}
		}
	}
	s.logger.Warn("balance unavailable, reporting fallback",
		"fallback", FallbackBalance,
		"error", err,
	)
	return BalanceReading{Amount: FallbackBalance, Source: BalanceFallback, Err: err}
}

// Deposit adds amount (a positive decimal string) to the account.
func (s *Session) Deposit(ctx context.Context, amount string) error {
	if err := ValidateDepositAmount(amount); err != nil {
		return err
	}
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if err := s.provider.Deposit(ctx, amount); err != nil {
		return fmt.Errorf("depositing %s: %w", amount, err)
	}
	s.logger.Info("deposit complete", "amount", amount)
	return nil
}
