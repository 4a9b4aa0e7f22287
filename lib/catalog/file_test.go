// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileMediumRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium, err := NewFileMedium(filepath.Join(t.TempDir(), "catalog"))
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}

	if _, err := medium.Load(ctx, DefaultKey); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Load(absent) error = %v, want ErrKeyNotFound", err)
	}
	if err := medium.Store(ctx, DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := medium.Store(ctx, DefaultKey, []byte(`[1]`)); err != nil {
		t.Fatalf("Store(replace): %v", err)
	}
	got, err := medium.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `[1]` {
		t.Errorf("Load = %q, want %q", got, `[1]`)
	}

	if err := medium.Remove(ctx, DefaultKey); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := medium.Remove(ctx, DefaultKey); err != nil {
		t.Errorf("Remove(absent): %v", err)
	}
	if _, err := os.Stat(medium.Path(DefaultKey)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat after Remove error = %v, want not-exist", err)
	}
}

func TestFileMediumLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	medium, err := NewFileMedium(root)
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}
	for range 3 {
		if err := medium.Store(ctx, DefaultKey, []byte(`[]`)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != DefaultKey+".json" {
		var names []string
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("directory contents = %v, want only %s.json", names, DefaultKey)
	}
}

func TestFileMediumRejectsBadKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium, err := NewFileMedium(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}
	for _, key := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b"} {
		if err := medium.Store(ctx, key, []byte(`[]`)); err == nil {
			t.Errorf("Store(%q) succeeded, want error", key)
		}
		if _, err := medium.Load(ctx, key); err == nil {
			t.Errorf("Load(%q) succeeded, want error", key)
		}
	}
}

func TestFileMediumStoreHonorsCancellation(t *testing.T) {
	t.Parallel()

	medium, err := NewFileMedium(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := medium.Store(ctx, DefaultKey, []byte(`[]`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Store error = %v, want context.Canceled", err)
	}
}

// A catalog written through one Store is visible to a Store opened
// later over the same directory.
func TestFileMediumDurableAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	first, err := NewFileMedium(root)
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}
	writer := New(first, Options{})
	for i := range 3 {
		if err := writer.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	second, err := NewFileMedium(root)
	if err != nil {
		t.Fatalf("NewFileMedium(reopen): %v", err)
	}
	reader := New(second, Options{})
	records, err := reader.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for i, record := range records {
		if !sameRecord(record, testRecord(i)) {
			t.Errorf("records[%d] = %+v, want %+v", i, record, testRecord(i))
		}
	}
}
