// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package media is reelstore's operation surface: upload, download,
// list, clear and statistics over a catalog and a storage session.
//
// Upload runs session initialization, operator approval, encoding,
// identifier derivation and the catalog insert in that order. Any
// failure stops the pipeline and is returned as a [*StageError]
// naming the stage; the catalog is written only by the last step, so
// a failed or abandoned upload leaves it unchanged.
//
// Download looks the record up by content identifier, checks and
// decodes its payload, and verifies the stored size and digest. It
// never writes.
//
// Every failure kind is a sentinel re-exported here (ErrNotFound,
// ErrMalformedPayload, ...) so callers need only this package to
// classify errors with errors.Is. [Retryable] reports whether
// repeating the same call can succeed.
package media
