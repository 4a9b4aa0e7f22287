// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reelstore/reelstore/lib/dataurl"
)

var (
	// ErrNotFound is returned when no record has the requested
	// content identifier.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentifier is returned by Insert when the record's
	// id or content id is already in the catalog.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrPersistenceWriteFailed wraps every failure to write the
	// catalog document: medium errors, serialization errors, quota.
	ErrPersistenceWriteFailed = errors.New("persistence write failed")

	// ErrQuotaExceeded is wrapped in ErrPersistenceWriteFailed when the
	// document would grow past Options.MaxDocumentBytes.
	ErrQuotaExceeded = errors.New("catalog quota exceeded")

	// ErrInvalidRecord is wrapped in ErrPersistenceWriteFailed when a
	// record lacks a required field or carries a malformed payload.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrCatalogUnreadable is returned by reads when the document
	// cannot be loaded or is not a JSON array. This is distinct from
	// an empty catalog.
	ErrCatalogUnreadable = errors.New("catalog unreadable")

	// ErrUndecodableRecord flags a document element that is not a
	// record object.
	ErrUndecodableRecord = errors.New("undecodable record")
)

// Options configures a Store.
type Options struct {
	// Key is the medium key of the catalog document. Defaults to
	// DefaultKey.
	Key string

	// MaxDocumentBytes caps the serialized document size. Zero means
	// unlimited. An insert that would exceed it fails with
	// ErrQuotaExceeded.
	MaxDocumentBytes int64

	// Logger receives per-record corruption warnings. Nil discards.
	Logger *slog.Logger
}

// Store is the catalog: an ordered, append-only list of MediaRecord
// persisted as one document in a Medium. Safe for concurrent use.
type Store struct {
	medium   Medium
	key      string
	maxBytes int64
	logger   *slog.Logger

	// mu serializes read-modify-write of the document. Readers take
	// the read side so a read started after an insert returned sees
	// that insert.
	mu sync.RWMutex
}

// New returns a Store over medium.
func New(medium Medium, options Options) *Store {
	key := options.Key
	if key == "" {
		key = DefaultKey
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		medium:   medium,
		key:      key,
		maxBytes: options.MaxDocumentBytes,
		logger:   logger,
	}
}

// Key returns the medium key the catalog document is stored under.
func (s *Store) Key() string {
	return s.key
}

// document is a parsed catalog. raw holds every element exactly as
// loaded so inserts can write back elements that failed to decode.
type document struct {
	raw     []json.RawMessage
	entries []Entry
}

func (s *Store) load(ctx context.Context) (*document, error) {
	data, err := s.medium.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreadable, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding document %q: %v", ErrCatalogUnreadable, s.key, err)
	}

	entries := make([]Entry, len(raw))
	for index, element := range raw {
		entries[index] = decodeEntry(index, element)
	}
	return &document{raw: raw, entries: entries}, nil
}

// element decodes a document element with the payload left raw, so a
// payload of the wrong JSON type does not hide the rest of the record.
type element struct {
	MediaRecord
	Payload json.RawMessage `json:"payload"`
}

func decodeEntry(index int, raw json.RawMessage) Entry {
	entry := Entry{Index: index}

	var decoded element
	if err := json.Unmarshal(raw, &decoded); err != nil {
		entry.Fault = fmt.Errorf("element %d: %w: %v", index, ErrUndecodableRecord, err)
		return entry
	}
	record := decoded.MediaRecord
	if record.ID == "" {
		entry.Fault = fmt.Errorf("element %d: %w: missing id", index, ErrUndecodableRecord)
		return entry
	}

	payload := bytes.TrimSpace(decoded.Payload)
	if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
		if err := json.Unmarshal(payload, &record.Payload); err != nil {
			// Keep the JSON text so previews show what is stored.
			record.Payload = string(payload)
			entry.Record = record
			entry.verbatimOnly = true
			entry.Fault = fmt.Errorf("record %s: %w: payload is not a string", record.ID, dataurl.ErrMalformedPayload)
			return entry
		}
	}

	entry.Record = record
	if record.Payload == "" {
		entry.Fault = fmt.Errorf("record %s: %w: payload missing", record.ID, dataurl.ErrMalformedPayload)
	} else if err := dataurl.Check(record.Payload); err != nil {
		entry.Fault = fmt.Errorf("record %s: %w", record.ID, err)
	}
	return entry
}

// report logs a faulty entry. Reads never fail because of one.
func (s *Store) report(entry Entry) {
	if entry.Fault == nil {
		return
	}
	s.logger.Warn("catalog record is corrupt",
		"index", entry.Index,
		"id", entry.Record.ID,
		"content_id", entry.Record.ContentID,
		"payload_preview", dataurl.Preview(entry.Record.Payload, 50),
		"error", entry.Fault,
	)
}

// List returns every decodable record in insertion order. Records
// whose payload fails the codec tag check are included and logged;
// elements that are not records at all are logged and skipped. An
// absent document is an empty catalog, not an error.
func (s *Store) List(ctx context.Context) ([]MediaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]MediaRecord, 0, len(doc.entries))
	for _, entry := range doc.entries {
		s.report(entry)
		if errors.Is(entry.Fault, ErrUndecodableRecord) {
			continue
		}
		records = append(records, entry.Record)
	}
	return records, nil
}

// Scan returns every document element with its fault, in order.
func (s *Store) Scan(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range doc.entries {
		s.report(entry)
	}
	if doc.entries == nil {
		return []Entry{}, nil
	}
	return doc.entries, nil
}

// FindByContentID returns the record with the given content
// identifier, or ErrNotFound. A record with a malformed payload is
// still returned (and logged); callers that need the payload must
// check it.
func (s *Store) FindByContentID(ctx context.Context, contentID string) (MediaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load(ctx)
	if err != nil {
		return MediaRecord{}, err
	}
	for _, entry := range doc.entries {
		if entry.Record.ContentID != contentID || errors.Is(entry.Fault, ErrUndecodableRecord) {
			continue
		}
		s.report(entry)
		return entry.Record, nil
	}
	return MediaRecord{}, fmt.Errorf("content %q: %w", contentID, ErrNotFound)
}

// Insert appends record to the catalog and returns once the new
// document is durable. On any error the stored document is unchanged.
func (s *Store) Insert(ctx context.Context, record MediaRecord) error {
	if err := validateRecord(record); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)
	}

	for _, entry := range doc.entries {
		if errors.Is(entry.Fault, ErrUndecodableRecord) {
			continue
		}
		if entry.Record.ID == record.ID {
			return fmt.Errorf("%w: id %q already present", ErrDuplicateIdentifier, record.ID)
		}
		if entry.Record.ContentID == record.ContentID {
			return fmt.Errorf("%w: content id %q already present", ErrDuplicateIdentifier, record.ContentID)
		}
	}

	element, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encoding record %s: %v", ErrPersistenceWriteFailed, record.ID, err)
	}
	raw := make([]json.RawMessage, 0, len(doc.raw)+1)
	raw = append(raw, doc.raw...)
	raw = append(raw, element)

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrPersistenceWriteFailed, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%w: %w: document would be %d bytes, limit is %d",
			ErrPersistenceWriteFailed, ErrQuotaExceeded, len(data), s.maxBytes)
	}

	if err := s.medium.Store(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)
	}

	s.logger.Info("catalog record inserted",
		"id", record.ID,
		"content_id", record.ContentID,
		"records", len(raw),
		"document_bytes", len(data),
	)
	return nil
}

func validateRecord(record MediaRecord) error {
	switch {
	case record.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	case record.ContentID == "":
		return fmt.Errorf("%w: content id is required", ErrInvalidRecord)
	case record.Payload == "":
		return fmt.Errorf("%w: payload is required", ErrInvalidRecord)
	}
	if err := dataurl.Check(record.Payload); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Clear removes every record. It is a recovery operation, never part
// of normal upload or playback flow.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("%w: clearing catalog: %w", ErrPersistenceWriteFailed, err)
	}
	s.logger.Info("catalog cleared", "key", s.key)
	return nil
}

// Contents is the catalog as handed to a [Store.Drain] callback.
type Contents struct {
	// Records holds every element that decodes to a record.
	Records []MediaRecord

	// Verbatim holds, unchanged, the elements that cannot be carried
	// as a MediaRecord: non-records and records whose payload is not
	// a JSON string.
	Verbatim []json.RawMessage
}

// Drain hands the current document to fn and clears the catalog only
// if fn succeeds. Every element reaches fn, either as a record or
// verbatim. No insert can land between the two steps.
func (s *Store) Drain(ctx context.Context, fn func(Contents) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	contents := Contents{Records: make([]MediaRecord, 0, len(doc.entries))}
	for index, entry := range doc.entries {
		if entry.verbatimOnly || errors.Is(entry.Fault, ErrUndecodableRecord) {
			contents.Verbatim = append(contents.Verbatim, doc.raw[index])
			continue
		}
		contents.Records = append(contents.Records, entry.Record)
	}
	if err := fn(contents); err != nil {
		return err
	}

	if err := s.medium.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("%w: clearing catalog: %w", ErrPersistenceWriteFailed, err)
	}
	s.logger.Info("catalog drained", "key", s.key,
		"records", len(contents.Records),
		"verbatim", len(contents.Verbatim),
	)
	return nil
}
