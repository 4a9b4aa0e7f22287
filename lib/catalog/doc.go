// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog is the durable index of every stored video.
//
// The catalog is a single JSON document: an array of [MediaRecord]
// objects kept under a well-known key ([DefaultKey]) in a [Medium].
// A medium is any key/value store that can atomically replace one
// value: [FileMedium] (a file per key, temp-file + fsync + rename),
// [SQLiteMedium] (a row per key in a WAL-mode database), or
// [MemoryMedium] for tests and throwaway runs.
//
// Because the whole catalog lives in one document, every [Store.Insert]
// is a read-modify-write of that document. The [Store] serializes
// these with a write lock, so two concurrent inserts always end with
// both records present, or one clean error. Readers share a read
// lock and, because media replace values atomically, never see a torn
// document.
//
// Corruption is isolated per record. An array element that is not a
// record object, or a record whose payload lacks the data URL codec
// tag, is logged and flagged by [Store.Scan] but never fails a read
// of the other records. Inserts preserve such elements verbatim: the
// catalog never silently drops data it could not understand.
//
// Records are append-only. There is no update and no per-record
// delete; [Store.Clear] removes the whole document and exists only
// as an explicit recovery operation.
package catalog
