// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"errors"
	"fmt"

	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/contentid"
	"github.com/reelstore/reelstore/lib/dataurl"
	"github.com/reelstore/reelstore/lib/session"
)

// Failure kinds.
var (
	ErrSessionInitFailed          = session.ErrInitFailed
	ErrApprovalFailed             = session.ErrApprovalFailed
	ErrEncodingFailed             = errors.New("encoding failed")
	ErrDecodingFailed             = errors.New("decoding failed")
	ErrMalformedPayload           = dataurl.ErrMalformedPayload
	ErrIdentifierGenerationFailed = contentid.ErrGenerationFailed
	ErrDuplicateIdentifier        = catalog.ErrDuplicateIdentifier
	ErrPersistenceWriteFailed     = catalog.ErrPersistenceWriteFailed
	ErrNotFound                   = catalog.ErrNotFound
	ErrCatalogUnreadable          = catalog.ErrCatalogUnreadable

	// ErrInvalidUpload is returned by ValidateUpload.
	ErrInvalidUpload = errors.New("invalid upload")
)

// Stage names a pipeline step.
type Stage string

const (
	StageSessionInit Stage = "session-init"
	StageApproval    Stage = "approval"
	StageEncode      Stage = "encode"
	StageIdentifier  Stage = "identifier"
	StageCatalog     Stage = "catalog"
	StageLookup      Stage = "lookup"
	StageValidate    Stage = "validate"
	StageDecode      Stage = "decode"
)

// StageError is returned by Upload and Download. errors.Is matches
// both the failure kind and the underlying cause.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil || errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageError(stage Stage, kind, err error) *StageError {
	if err == nil {
		err = kind
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// StageOf returns the stage a pipeline error came from, or "".
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// Retryable reports whether repeating the failed call unchanged can
// succeed. Session, identifier and persistence failures are
// transient. Codec faults, duplicates and missing records are not.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMalformedPayload),
		errors.Is(err, ErrEncodingFailed),
		errors.Is(err, ErrDecodingFailed),
		errors.Is(err, ErrDuplicateIdentifier),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidUpload):
		return false
	case errors.Is(err, ErrSessionInitFailed),
		errors.Is(err, ErrApprovalFailed),
		errors.Is(err, ErrIdentifierGenerationFailed),
		errors.Is(err, ErrPersistenceWriteFailed),
		errors.Is(err, ErrCatalogUnreadable):
		return true
	}
	return false
}
