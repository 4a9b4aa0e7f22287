// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with the pragmas
// reelstore relies on.
//
// It wraps zombiezen.com/go/sqlite. Callers [Pool.Take] a connection,
// use it from a single goroutine, and [Pool.Put] it back; or use
// [Pool.Immediate] to run a function inside an IMMEDIATE transaction
// that commits when the function returns nil and rolls back
// otherwise.
//
// Every connection gets:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=FULL: a committed transaction survives power loss.
//     The catalog promises that a successful insert is durable before
//     it returns, so NORMAL is not enough here.
//   - busy_timeout=5000: wait for the write lock instead of failing.
//   - temp_store=MEMORY.
package sqlitepool
