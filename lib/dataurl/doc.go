// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataurl is the binary codec used to carry video payloads
// through the text-only catalog document.
//
// The text form is an RFC 2397 data URL with a mandatory base64
// marker:
//
//	data:<media type>;base64,<standard base64, padded>
//
// The "data:" prefix and the ";base64," marker together form the
// codec tag. [Check] verifies only the tag and is cheap enough to run
// on every catalog read; [Decode] additionally requires the body to be
// strict, padded, whitespace-free base64. Both report
// [ErrMalformedPayload].
//
// Encode and Decode are exact inverses for every byte sequence,
// including the empty one. The codec never compresses or chunks: one
// payload in, one string out.
package dataurl
