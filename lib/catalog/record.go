// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"time"
)

// DefaultKey is the well-known key the catalog document is stored
// under.
const DefaultKey = "uploadedVideos"

// DefaultAdRate is the rate recorded when ads are disabled or the
// creator did not supply one.
const DefaultAdRate = "0"

// MediaRecord describes one stored video. Records are immutable once
// inserted. JSON field names are part of the persisted document
// layout.
type MediaRecord struct {
	// ID is the opaque record identifier (a UUIDv7 string).
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// CreatorID identifies the uploading account.
	CreatorID string `json:"creatorId"`

	// ContentID is the identifier playback uses to fetch the payload.
	ContentID string `json:"contentId"`

	CreatedAt time.Time `json:"createdAt"`

	AdsEnabled bool `json:"adsEnabled"`

	// AdRate is a decimal string, per view.
	AdRate string `json:"adRate"`

	ThumbnailRef string `json:"thumbnailRef,omitempty"`

	// MediaType is the MIME type declared in the payload's data URL.
	MediaType string `json:"mediaType,omitempty"`

	// Size is the decoded payload length in bytes.
	Size int64 `json:"size"`

	// PayloadDigest is the hex BLAKE3 digest of the decoded payload.
	// Records written before digests existed leave it empty.
	PayloadDigest string `json:"payloadDigest,omitempty"`

	// Payload is the data URL text form of the video bytes.
	Payload string `json:"payload"`
}

// Entry is one element of the catalog document as seen by
// [Store.Scan]. Fault is nil for a healthy record.
type Entry struct {
	// Index is the element's position in the document.
	Index int

	// Record is the decoded record. Zero when Fault is
	// ErrUndecodableRecord.
	Record MediaRecord

	// Fault is nil, dataurl.ErrMalformedPayload (wrapped), or
	// ErrUndecodableRecord (wrapped).
	Fault error

	// verbatimOnly marks a record whose payload was not a JSON
	// string. Record.Payload then holds the raw JSON text.
	verbatimOnly bool
}
