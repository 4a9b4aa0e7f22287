// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds reelstore's CBOR configuration.
//
// The catalog document is JSON because its layout is shared with
// other readers. Backup snapshots are CBOR: compact, binary-safe, and
// encoded with Core Deterministic Encoding (RFC 8949 §4.2) so the
// same set of records always produces the same bytes and therefore
// the same snapshot digest.
//
// Types that are persisted in both forms carry only `json` tags.
// fxamacker/cbor falls back to them when no `cbor` tag is present,
// so one tag set names the fields in both encodings.
package codec
