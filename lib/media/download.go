// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/contentid"
	"github.com/reelstore/reelstore/lib/dataurl"
)

// DownloadResult is returned by a successful Download.
type DownloadResult struct {
	// Data is the decoded payload.
	Data []byte

	// MediaType is the type declared in the payload's data URL.
	MediaType string

	// Record is the catalog record. Record.Payload is the encoded
	// data URL, usable directly by consumers that accept one.
	Record catalog.MediaRecord
}

// Download resolves contentID to its payload bytes.
func (s *Service) Download(ctx context.Context, contentID string) (DownloadResult, error) {
	if !s.downloadWithoutSession {
		if err := s.session.Initialize(ctx); err != nil {
			return DownloadResult{}, stageError(StageSessionInit, ErrSessionInitFailed, err)
		}
	}

	record, err := s.catalog.FindByContentID(ctx, contentID)
	if err != nil {
		kind := ErrCatalogUnreadable
		if errors.Is(err, ErrNotFound) {
			kind = ErrNotFound
		}
		return DownloadResult{}, stageError(StageLookup, kind, err)
	}

	if record.Payload == "" {
		return DownloadResult{}, stageError(StageValidate, ErrMalformedPayload,
			fmt.Errorf("record %s: %w: payload missing", record.ID, ErrMalformedPayload))
	}
	if err := dataurl.Check(record.Payload); err != nil {
		s.logger.Warn("refusing to play malformed payload",
			"content_id", contentID,
			"id", record.ID,
			"payload_preview", dataurl.Preview(record.Payload, 50),
		)
		return DownloadResult{}, stageError(StageValidate, ErrMalformedPayload, fmt.Errorf("record %s: %w", record.ID, err))
	}

	decoded, err := dataurl.DecodeWithType(record.Payload)
	if err != nil {
		return DownloadResult{}, stageError(StageDecode, ErrDecodingFailed, fmt.Errorf("record %s: %w", record.ID, err))
	}
	if err := verify(record, decoded.Data); err != nil {
		return DownloadResult{}, stageError(StageDecode, ErrDecodingFailed, err)
	}

	s.logger.Info("download complete",
		"content_id", contentID,
		"id", record.ID,
		"bytes", len(decoded.Data),
	)
	return DownloadResult{Data: decoded.Data, MediaType: decoded.MediaType, Record: record}, nil
}

// verify checks the decoded bytes against the size and digest the
// record was written with. Records that predate digests skip the
// digest check.
func verify(record catalog.MediaRecord, data []byte) error {
	if record.Size != 0 && record.Size != int64(len(data)) {
		return fmt.Errorf("record %s: decoded %d bytes, record says %d", record.ID, len(data), record.Size)
	}
	if record.PayloadDigest != "" {
		if digest := contentid.Digest(data); digest != record.PayloadDigest {
			return fmt.Errorf("record %s: payload digest %s does not match recorded %s", record.ID, digest, record.PayloadDigest)
		}
	}
	return nil
}

// VerifyFailure is one catalog element that would fail Download.
type VerifyFailure struct {
	// Index is the element's position in the catalog document.
	Index int

	// ContentID is empty for elements that are not records.
	ContentID string

	Err error
}

// Verify decodes every record and reports, in document order, the
// elements that would fail Download.
func (s *Service) Verify(ctx context.Context) (checked int, failures []VerifyFailure, err error) {
	entries, err := s.catalog.Scan(ctx)
	if err != nil {
		return 0, nil, err
	}

	for _, entry := range entries {
		checked++
		failure := VerifyFailure{Index: entry.Index, ContentID: entry.Record.ContentID}
		switch {
		case entry.Fault != nil:
			failure.Err = entry.Fault
		default:
			decoded, err := dataurl.DecodeWithType(entry.Record.Payload)
			if err == nil {
				err = verify(entry.Record, decoded.Data)
			}
			if err == nil {
				continue
			}
			failure.Err = fmt.Errorf("%w: %w", ErrDecodingFailed, err)
		}
		failures = append(failures, failure)
	}
	return checked, failures, nil
}
