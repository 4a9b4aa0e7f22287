// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/clock"
	"github.com/reelstore/reelstore/lib/contentid"
	"github.com/reelstore/reelstore/lib/identity"
	"github.com/reelstore/reelstore/lib/session"
)

// SnapshotWriter persists a copy of the catalog before it is
// cleared. *backup.Writer implements it.
type SnapshotWriter interface {
	Write(ctx context.Context, key string, contents catalog.Contents) (string, error)
}

// Options configures a Service. Session and Catalog are required.
type Options struct {
	Session *session.Session
	Catalog *catalog.Store

	// Generator derives content and record identifiers. Defaults to
	// contentid.New().
	Generator *contentid.Generator

	// Clock stamps record creation times. Defaults to clock.Real().
	Clock clock.Clock

	// Identity is consulted once per upload whose metadata carries no
	// creator. Nil attributes such uploads to
	// identity.FallbackCreatorID.
	Identity identity.Resolver

	// Backup, when set, receives a snapshot of the catalog before
	// every Clear. A failed snapshot aborts the clear.
	Backup SnapshotWriter

	// DownloadWithoutSession skips session initialization on
	// Download. By default downloads bring the session up first.
	DownloadWithoutSession bool

	Logger *slog.Logger
}

// Service implements the media operations. Safe for concurrent use.
type Service struct {
	session                *session.Session
	catalog                *catalog.Store
	generator              *contentid.Generator
	clock                  clock.Clock
	identity               identity.Resolver
	backup                 SnapshotWriter
	downloadWithoutSession bool
	logger                 *slog.Logger
}

// New returns a Service.
func New(options Options) (*Service, error) {
	if options.Session == nil {
		return nil, errors.New("media: Session is required")
	}
	if options.Catalog == nil {
		return nil, errors.New("media: Catalog is required")
	}

	service := &Service{
		session:                options.Session,
		catalog:                options.Catalog,
		generator:              options.Generator,
		clock:                  options.Clock,
		identity:               options.Identity,
		backup:                 options.Backup,
		downloadWithoutSession: options.DownloadWithoutSession,
		logger:                 options.Logger,
	}
	if service.generator == nil {
		service.generator = contentid.New()
	}
	if service.clock == nil {
		service.clock = clock.Real()
	}
	if service.logger == nil {
		service.logger = slog.New(slog.DiscardHandler)
	}
	return service, nil
}

// List returns every catalog record in insertion order.
func (s *Service) List(ctx context.Context) ([]catalog.MediaRecord, error) {
	return s.catalog.List(ctx)
}

// Scan returns every catalog element with its integrity fault.
func (s *Service) Scan(ctx context.Context) ([]catalog.Entry, error) {
	return s.catalog.Scan(ctx)
}

// ClearResult reports what Clear did.
type ClearResult struct {
	// Records is the number of records removed, when known.
	Records int `json:"records"`

	// Verbatim counts removed elements that were not valid records.
	// They are kept verbatim in the snapshot.
	Verbatim int `json:"verbatim,omitempty"`

	// BackupPath is the snapshot written before clearing, if any.
	BackupPath string `json:"backupPath,omitempty"`
}

// Clear removes every record from the catalog. With a backup writer
// configured, the records are snapshotted first and the catalog is
// left alone if the snapshot fails.
func (s *Service) Clear(ctx context.Context) (ClearResult, error) {
	if s.backup == nil {
		if err := s.catalog.Clear(ctx); err != nil {
			return ClearResult{}, err
		}
		s.logger.Warn("catalog cleared without backup")
		return ClearResult{}, nil
	}

	var result ClearResult
	err := s.catalog.Drain(ctx, func(contents catalog.Contents) error {
		path, err := s.backup.Write(ctx, s.catalog.Key(), contents)
		if err != nil {
			return fmt.Errorf("backing up catalog before clear: %w", err)
		}
		result = ClearResult{
			Records:    len(contents.Records),
			Verbatim:   len(contents.Verbatim),
			BackupPath: path,
		}
		return nil
	})
	if err != nil {
		return ClearResult{}, err
	}
	s.logger.Info("catalog cleared",
		"records", result.Records,
		"verbatim", result.Verbatim,
		"backup", result.BackupPath,
	)
	return result, nil
}

// Stats summarizes the catalog the way a creator dashboard does.
type Stats struct {
	Records    int            `json:"records"`
	Malformed  int            `json:"malformed"`
	TotalBytes int64          `json:"totalBytes"`
	AdsEnabled int            `json:"adsEnabled"`
	ByCreator  map[string]int `json:"byCreator"`
	ByType     map[string]int `json:"byType"`
	Oldest     *time.Time     `json:"oldest,omitempty"`
	Newest     *time.Time     `json:"newest,omitempty"`
}

// Stats scans the catalog. Elements that are not records at all are
// counted as malformed and otherwise ignored.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	entries, err := s.catalog.Scan(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		ByCreator: make(map[string]int),
		ByType:    make(map[string]int),
	}
	for _, entry := range entries {
		if entry.Fault != nil {
			stats.Malformed++
		}
		if errors.Is(entry.Fault, catalog.ErrUndecodableRecord) {
			continue
		}

		record := entry.Record
		stats.Records++
		stats.TotalBytes += record.Size
		if record.AdsEnabled {
			stats.AdsEnabled++
		}
		stats.ByCreator[record.CreatorID]++
		mediaType := record.MediaType
		if mediaType == "" {
			mediaType = "unknown"
		}
		stats.ByType[mediaType]++

		if record.CreatedAt.IsZero() {
			continue
		}
		created := record.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			newest := created
			stats.Newest = &newest
		}
	}
	return stats, nil
}
