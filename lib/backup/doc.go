// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package backup writes and reads catalog snapshots.
//
// A snapshot is taken before the catalog is cleared so a destructive
// reset can be undone by hand. The file layout is:
//
//	offset  size  field
//	0       4     magic "RSBK"
//	4       1     format version (1)
//	5       1     compression tag (0 none, 1 lz4, 2 zstd)
//	6       1     flags (bit 0: body is age-encrypted)
//	7       8     uncompressed body length, big-endian
//	15      ...   body
//
// The body is the CBOR encoding of a [Snapshot] (see lib/codec),
// compressed with the tagged algorithm, then optionally encrypted to
// one or more age X25519 recipients. Files are written to a temporary
// name, fsynced and renamed into place.
package backup
