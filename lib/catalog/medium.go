// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrKeyNotFound is returned by [Medium.Load] when no value is stored
// under the key.
var ErrKeyNotFound = errors.New("key not found")

// Medium is the durable key/value store holding the catalog document.
//
// Store must replace the value atomically and durably: a Load after a
// successful Store (even from a new process) returns the new value,
// and a failed Store leaves the previous value intact.
type Medium interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte) error
	// Remove deletes the value. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryMedium keeps values in process memory. Used by tests and
// ephemeral CLI runs.
type MemoryMedium struct {
	mu     sync.Mutex
	values map[string][]byte

	// FailStores makes every Store call fail with the given error.
	// Tests use it to exercise the write-failure path.
	FailStores error
}

// NewMemoryMedium returns an empty MemoryMedium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: make(map[string][]byte)}
}

func (m *MemoryMedium) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("loading %q: %w", key, ErrKeyNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryMedium) Store(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStores != nil {
		return m.FailStores
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryMedium) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// SetFailStores sets FailStores under the medium's lock.
func (m *MemoryMedium) SetFailStores(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailStores = err
}
