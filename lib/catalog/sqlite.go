// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/reelstore/reelstore/lib/clock"
	"github.com/reelstore/reelstore/lib/sqlitepool"
)

const documentSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteMedium stores each key as a row of the documents table. Each
// Store is a single-row upsert inside an IMMEDIATE transaction, which
// gives atomic replacement and, with synchronous=FULL, durability.
type SQLiteMedium struct {
	pool  *sqlitepool.Pool
	clock clock.Clock
}

// OpenSQLiteMedium opens (creating if needed) the database at path.
// The caller must Close the medium.
func OpenSQLiteMedium(path string, clk clock.Clock, logger *slog.Logger) (*SQLiteMedium, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, documentSchema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteMedium{pool: pool, clock: clk}, nil
}

// Close closes the underlying pool.
func (m *SQLiteMedium) Close() error {
	return m.pool.Close()
}

func (m *SQLiteMedium) Load(ctx context.Context, key string) ([]byte, error) {
	conn, err := m.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	defer m.pool.Put(conn)

	var (
		value []byte
		found bool
	)
	err = sqlitex.Execute(conn, "SELECT value FROM documents WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = []byte(stmt.ColumnText(0))
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	if !found {
		return nil, fmt.Errorf("loading %q: %w", key, ErrKeyNotFound)
	}
	return value, nil
}

func (m *SQLiteMedium) Store(ctx context.Context, key string, value []byte) error {
	err := m.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{
				Args: []any{key, string(value), m.clock.Now().UnixMilli()},
			})
	})
	if err != nil {
		return fmt.Errorf("storing %q: %w", key, err)
	}
	return nil
}

func (m *SQLiteMedium) Remove(ctx context.Context, key string) error {
	err := m.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "DELETE FROM documents WHERE key = ?", &sqlitex.ExecOptions{
			Args: []any{key},
		})
	})
	if err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}
