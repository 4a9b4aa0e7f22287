// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/reelstore/reelstore/lib/clock"
)

// Step names one Provider operation for latency and failure
// injection.
type Step string

const (
	StepHandshake     Step = "handshake"
	StepAuthorize     Step = "authorize"
	StepApprove       Step = "approve-operators"
	StepCreateStorage Step = "create-storage"
	StepBalance       Step = "balance"
	StepDeposit       Step = "deposit"
)

// Latency is the simulated duration of each step.
type Latency map[Step]time.Duration

// DefaultLatency approximates the hosted service.
func DefaultLatency() Latency {
	return Latency{
		StepHandshake:     time.Second,
		StepAuthorize:     0,
		StepApprove:       1500 * time.Millisecond,
		StepCreateStorage: time.Second,
		StepBalance:       500 * time.Millisecond,
		StepDeposit:       2 * time.Second,
	}
}

const (
	// DefaultSimulatedBalance is the opening balance of a Simulated
	// account.
	DefaultSimulatedBalance = "80.00"

	defaultProviderID = "0x1234567890abcdef"
	defaultServiceURL = "https://pdp-provider.filecoin.io"
	firstProofSet     = 12345
)

// SimulatedOptions configures a Simulated provider. Zero values take
// defaults, except Latency: nil means no delay at all.
type SimulatedOptions struct {
	Clock   clock.Clock
	Latency Latency

	// Balance is the opening balance. Defaults to
	// DefaultSimulatedBalance.
	Balance string

	ProviderID string
	ServiceURL string

	Logger *slog.Logger
}

// Simulated is an in-process Provider.
type Simulated struct {
	clock      clock.Clock
	latency    Latency
	providerID string
	serviceURL string
	logger     *slog.Logger

	mu        sync.Mutex
	balance   *big.Rat
	failures  map[Step]error
	calls     map[Step]int
	proofSets int
}

// NewSimulated returns a Simulated provider.
func NewSimulated(options SimulatedOptions) (*Simulated, error) {
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opening := options.Balance
	if opening == "" {
		opening = DefaultSimulatedBalance
	}
	balance, err := parseAmount(opening)
	if err != nil {
		return nil, fmt.Errorf("simulated opening balance: %w", err)
	}

	simulated := &Simulated{
		clock:      clk,
		latency:    options.Latency,
		providerID: options.ProviderID,
		serviceURL: options.ServiceURL,
		logger:     logger,
		balance:    balance,
		failures:   make(map[Step]error),
		calls:      make(map[Step]int),
	}
	if simulated.providerID == "" {
		simulated.providerID = defaultProviderID
	}
	if simulated.serviceURL == "" {
		simulated.serviceURL = defaultServiceURL
	}
	return simulated, nil
}

// Fail makes every later call of step fail with err until Fail is
// called again with a nil error.
func (p *Simulated) Fail(step Step, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, step)
		return
	}
	p.failures[step] = err
}

// Calls returns how many times step has been invoked.
func (p *Simulated) Calls(step Step) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[step]
}

// enter records the call, waits out the step's latency and returns
// any injected failure.
func (p *Simulated) enter(ctx context.Context, step Step) error {
	p.mu.Lock()
	p.calls[step]++
	delay := p.latency[step]
	p.mu.Unlock()

	p.logger.Debug("simulated storage step", "step", step, "delay", delay)
	if err := clock.Wait(ctx, p.clock, delay); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures[step]; err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

func (p *Simulated) Handshake(ctx context.Context) error {
	return p.enter(ctx, StepHandshake)
}

func (p *Simulated) Authorize(ctx context.Context) error {
	return p.enter(ctx, StepAuthorize)
}

func (p *Simulated) ApproveOperators(ctx context.Context) error {
	return p.enter(ctx, StepApprove)
}

func (p *Simulated) CreateStorage(ctx context.Context) (StorageContext, error) {
	if err := p.enter(ctx, StepCreateStorage); err != nil {
		return StorageContext{}, err
	}

	p.mu.Lock()
	proofSet := firstProofSet + p.proofSets
	p.proofSets++
	p.mu.Unlock()

	storage := StorageContext{
		ProviderID: p.providerID,
		ServiceURL: p.serviceURL,
		ProofSetID: fmt.Sprintf("proof_set_%d", proofSet),
		CreatedAt:  p.clock.Now(),
	}
	p.logger.Info("simulated storage created",
		"provider_id", storage.ProviderID,
		"service_url", storage.ServiceURL,
		"proof_set_id", storage.ProofSetID,
	)
	return storage, nil
}

func (p *Simulated) Balance(ctx context.Context) (string, error) {
	if err := p.enter(ctx, StepBalance); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance.FloatString(2), nil
}

func (p *Simulated) Deposit(ctx context.Context, amount string) error {
	value, err := parseAmount(amount)
	if err != nil {
		return err
	}
	if err := p.enter(ctx, StepDeposit); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Add(p.balance, value)
	return nil
}
