// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileMedium stores each key as <root>/<key>.json. Writes go to a
// temporary file in the same directory, are fsynced, and are renamed
// over the final path, so readers see either the old document or the
// new one. The directory is fsynced after the rename so the new name
// survives a crash.
//
// FileMedium does not lock across processes. One process owns a
// catalog root at a time.
type FileMedium struct {
	root string
}

// NewFileMedium creates a FileMedium rooted at root, creating the
// directory if needed.
func NewFileMedium(root string) (*FileMedium, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory %s: %w", root, err)
	}
	return &FileMedium{root: root}, nil
}

// Path returns the file holding key.
func (m *FileMedium) Path(key string) string {
	return filepath.Join(m.root, key+".json")
}

func (m *FileMedium) Load(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(m.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %q: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return data, nil
}

func (m *FileMedium) Store(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(m.root, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %q: %w", key, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(value); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %q: %w", key, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing %q: %w", key, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file for %q: %w", key, err)
	}
	if err := os.Rename(tmpPath, m.Path(key)); err != nil {
		return fmt.Errorf("renaming %q into place: %w", key, err)
	}
	success = true

	return syncDir(m.root)
}

func (m *FileMedium) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(m.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return syncDir(m.root)
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for sync: %w", path, err)
	}
	defer dir.Close()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

// validateKey rejects keys that would escape the medium root or
// collide with temp files.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("medium key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.ContainsRune(key, 0) {
		return fmt.Errorf("invalid medium key %q", key)
	}
	return nil
}
