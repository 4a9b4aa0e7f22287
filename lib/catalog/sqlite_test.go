// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reelstore/reelstore/lib/clock"
)

func openTestSQLiteMedium(t *testing.T, path string) *SQLiteMedium {
	t.Helper()
	medium, err := OpenSQLiteMedium(path, clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), nil)
	if err != nil {
		t.Fatalf("OpenSQLiteMedium: %v", err)
	}
	t.Cleanup(func() { medium.Close() })
	return medium
}

func TestSQLiteMediumRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := openTestSQLiteMedium(t, filepath.Join(t.TempDir(), "catalog.db"))

	if _, err := medium.Load(ctx, DefaultKey); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Load(absent) error = %v, want ErrKeyNotFound", err)
	}
	if err := medium.Store(ctx, DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := medium.Store(ctx, DefaultKey, []byte(`[{"id":"x"}]`)); err != nil {
		t.Fatalf("Store(replace): %v", err)
	}
	got, err := medium.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `[{"id":"x"}]` {
		t.Errorf("Load = %q, want %q", got, `[{"id":"x"}]`)
	}

	if err := medium.Remove(ctx, DefaultKey); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := medium.Load(ctx, DefaultKey); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Load after Remove error = %v, want ErrKeyNotFound", err)
	}
}

func TestSQLiteMediumDurableAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := OpenSQLiteMedium(path, clock.Real(), nil)
	if err != nil {
		t.Fatalf("OpenSQLiteMedium: %v", err)
	}
	writer := New(first, Options{})
	for i := range 2 {
		if err := writer.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader := New(openTestSQLiteMedium(t, path), Options{})
	records, err := reader.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if !sameRecord(records[1], testRecord(1)) {
		t.Errorf("records[1] = %+v, want %+v", records[1], testRecord(1))
	}
}
