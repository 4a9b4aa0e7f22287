// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/contentid"
	"github.com/reelstore/reelstore/lib/dataurl"
	"github.com/reelstore/reelstore/lib/identity"
	"github.com/reelstore/reelstore/lib/session"
)

// Metadata describes an upload.
type Metadata struct {
	Title       string
	Description string
	AdsEnabled  bool
	// AdRate is a decimal string. Ignored unless AdsEnabled.
	AdRate string
	// CreatorID, when empty, is resolved through Options.Identity.
	CreatorID    string
	ThumbnailRef string
	// MediaType is carried in the payload's data URL. Empty means
	// application/octet-stream.
	MediaType string
}

// UploadResult is returned by a successful Upload.
type UploadResult struct {
	ContentID string                 `json:"contentId"`
	Record    catalog.MediaRecord    `json:"record"`
	Storage   session.StorageContext `json:"storage"`
}

// Upload stores payload in the catalog and returns its content
// identifier. The caller must have checked the input with
// ValidateUpload.
func (s *Service) Upload(ctx context.Context, payload []byte, metadata Metadata) (UploadResult, error) {
	if err := s.session.Initialize(ctx); err != nil {
		return UploadResult{}, stageError(StageSessionInit, ErrSessionInitFailed, err)
	}
	if err := s.session.ApproveOperators(ctx); err != nil {
		kind := ErrApprovalFailed
		if errors.Is(err, ErrSessionInitFailed) {
			kind = ErrSessionInitFailed
		}
		return UploadResult{}, stageError(StageApproval, kind, err)
	}
	storage, err := s.session.Storage(ctx)
	if err != nil {
		return UploadResult{}, stageError(StageSessionInit, ErrSessionInitFailed, err)
	}

	encoded, err := dataurl.EncodeWithType(metadata.MediaType, payload)
	if err != nil {
		return UploadResult{}, stageError(StageEncode, ErrEncodingFailed, err)
	}

	contentID, err := s.generator.Derive(payload)
	if err != nil {
		return UploadResult{}, stageError(StageIdentifier, ErrIdentifierGenerationFailed, err)
	}
	recordID, err := s.generator.RecordID()
	if err != nil {
		return UploadResult{}, stageError(StageIdentifier, ErrIdentifierGenerationFailed, err)
	}

	creatorID := metadata.CreatorID
	if creatorID == "" {
		creatorID = identity.Resolve(ctx, s.identity, s.logger).ID
	}
	adRate := metadata.AdRate
	if !metadata.AdsEnabled || adRate == "" {
		adRate = catalog.DefaultAdRate
	}
	mediaType := metadata.MediaType
	if mediaType == "" {
		mediaType = dataurl.DefaultMediaType
	}

	record := catalog.MediaRecord{
		ID:            recordID,
		Title:         metadata.Title,
		Description:   metadata.Description,
		CreatorID:     creatorID,
		ContentID:     contentID,
		CreatedAt:     s.clock.Now().UTC(),
		AdsEnabled:    metadata.AdsEnabled,
		AdRate:        adRate,
		ThumbnailRef:  metadata.ThumbnailRef,
		MediaType:     mediaType,
		Size:          int64(len(payload)),
		PayloadDigest: contentid.Digest(payload),
		Payload:       encoded,
	}

	// An abandoned upload must not reach the catalog.
	if err := ctx.Err(); err != nil {
		return UploadResult{}, stageError(StageCatalog, ErrPersistenceWriteFailed, err)
	}
	if err := s.catalog.Insert(ctx, record); err != nil {
		kind := ErrPersistenceWriteFailed
		if errors.Is(err, ErrDuplicateIdentifier) {
			kind = ErrDuplicateIdentifier
		}
		return UploadResult{}, stageError(StageCatalog, kind, err)
	}

	s.logger.Info("upload complete",
		"content_id", contentID,
		"id", recordID,
		"creator_id", creatorID,
		"media_type", mediaType,
		"bytes", len(payload),
		"proof_set_id", storage.ProofSetID,
	)
	return UploadResult{ContentID: contentID, Record: record, Storage: storage}, nil
}

// UploadPolicy holds the boundary checks applied before Upload.
type UploadPolicy struct {
	// MaxBytes caps the payload size. Zero means unlimited.
	MaxBytes int64

	// AllowedTypes lists accepted media type prefixes such as
	// "video/". Empty accepts any type.
	AllowedTypes []string
}

// DefaultUploadPolicy accepts video files of any size.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{AllowedTypes: []string{"video/"}}
}

// ValidateUpload enforces the preconditions Upload relies on: a
// non-empty payload and title, and a media type and size the policy
// accepts.
func ValidateUpload(payload []byte, metadata Metadata, policy UploadPolicy) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is empty", ErrInvalidUpload)
	}
	if strings.TrimSpace(metadata.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidUpload)
	}
	if policy.MaxBytes > 0 && int64(len(payload)) > policy.MaxBytes {
		return fmt.Errorf("%w: payload is %d bytes, limit is %d", ErrInvalidUpload, len(payload), policy.MaxBytes)
	}
	if metadata.AdsEnabled && metadata.AdRate != "" {
		if err := session.ValidateAmount(metadata.AdRate); err != nil {
			return fmt.Errorf("%w: ad rate: %w", ErrInvalidUpload, err)
		}
	}
	if len(policy.AllowedTypes) == 0 {
		return nil
	}
	for _, prefix := range policy.AllowedTypes {
		if strings.HasPrefix(metadata.MediaType, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%w: media type %q is not one of %v", ErrInvalidUpload, metadata.MediaType, policy.AllowedTypes)
}

// DetectMediaType sniffs the payload's MIME type from its leading
// bytes, without parameters.
func DetectMediaType(payload []byte) string {
	detected := mimetype.Detect(payload).String()
	mediaType, _, _ := strings.Cut(detected, ";")
	return strings.TrimSpace(mediaType)
}
