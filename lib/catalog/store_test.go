// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reelstore/reelstore/lib/dataurl"
)

func testRecord(n int) MediaRecord {
	return MediaRecord{
		ID:          fmt.Sprintf("record-%03d", n),
		Title:       fmt.Sprintf("video %d", n),
		Description: "test video",
		CreatorID:   "creator-a",
		ContentID:   fmt.Sprintf("content-%03d", n),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
		AdRate:      DefaultAdRate,
		Size:        3,
		Payload:     dataurl.Encode([]byte{byte(n), 1, 2}),
	}
}

// sameRecord compares records with time.Time.Equal so a JSON round
// trip of CreatedAt still matches.
func sameRecord(a, b MediaRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b
}

func TestListEmptyWhenAbsent(t *testing.T) {
	t.Parallel()

	store := New(NewMemoryMedium(), Options{})
	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
	if records == nil {
		t.Error("List returned nil slice for empty catalog")
	}
}

func TestInsertPreservesOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})
	for i := range 5 {
		if err := store.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("len(records) = %d, want 5", len(records))
	}
	for i, record := range records {
		want := testRecord(i)
		if !sameRecord(record, want) {
			t.Errorf("records[%d] = %+v, want %+v", i, record, want)
		}
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})
	if err := store.Insert(ctx, testRecord(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	sameID := testRecord(2)
	sameID.ID = testRecord(1).ID
	if err := store.Insert(ctx, sameID); !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("Insert(same id) error = %v, want ErrDuplicateIdentifier", err)
	}

	sameContent := testRecord(3)
	sameContent.ContentID = testRecord(1).ContentID
	if err := store.Insert(ctx, sameContent); !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("Insert(same content id) error = %v, want ErrDuplicateIdentifier", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestInsertRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*MediaRecord)
	}{
		{"missing id", func(r *MediaRecord) { r.ID = "" }},
		{"missing content id", func(r *MediaRecord) { r.ContentID = "" }},
		{"missing payload", func(r *MediaRecord) { r.Payload = "" }},
		{"untagged payload", func(r *MediaRecord) { r.Payload = "AQID" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			store := New(NewMemoryMedium(), Options{})
			record := testRecord(1)
			test.mutate(&record)
			err := store.Insert(context.Background(), record)
			if !errors.Is(err, ErrPersistenceWriteFailed) || !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Insert error = %v, want ErrPersistenceWriteFailed wrapping ErrInvalidRecord", err)
			}
		})
	}
}

func TestInsertWriteFailureLeavesCatalogUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	store := New(medium, Options{})
	for i := range 2 {
		if err := store.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	before, err := medium.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	injected := errors.New("disk full")
	medium.SetFailStores(injected)
	err = store.Insert(ctx, testRecord(2))
	if !errors.Is(err, ErrPersistenceWriteFailed) {
		t.Errorf("Insert error = %v, want ErrPersistenceWriteFailed", err)
	}
	if !errors.Is(err, injected) {
		t.Errorf("Insert error = %v, want it to wrap the medium error", err)
	}

	after, err := medium.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(after) != string(before) {
		t.Errorf("document changed after failed insert:\n got %s\nwant %s", after, before)
	}
}

func TestInsertQuota(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	store := New(medium, Options{MaxDocumentBytes: 600})
	if err := store.Insert(ctx, testRecord(1)); err != nil {
		t.Fatalf("Insert(first): %v", err)
	}

	big := testRecord(2)
	big.Payload = dataurl.Encode(make([]byte, 1024))
	err := store.Insert(ctx, big)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Insert error = %v, want ErrQuotaExceeded", err)
	}
	if !errors.Is(err, ErrPersistenceWriteFailed) {
		t.Errorf("Insert error = %v, want ErrPersistenceWriteFailed", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestCorruptRecordIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	good := testRecord(1)
	document := `[` +
		`{"id":"record-001","title":"video 1","description":"test video","creatorId":"creator-a",` +
		`"contentId":"content-001","createdAt":"2026-01-01T00:00:01Z","adsEnabled":false,"adRate":"0",` +
		`"size":3,"payload":"` + good.Payload + `"},` +
		`{"id":"record-002","contentId":"content-002","payload":"AQID"},` +
		`42` +
		`]`
	if err := medium.Store(ctx, DefaultKey, []byte(document)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	store := New(medium, Options{})

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (undecodable element skipped)", len(records))
	}
	if !sameRecord(records[0], good) {
		t.Errorf("records[0] = %+v, want %+v", records[0], good)
	}

	entries, err := store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Fault != nil {
		t.Errorf("entries[0].Fault = %v, want nil", entries[0].Fault)
	}
	if !errors.Is(entries[1].Fault, dataurl.ErrMalformedPayload) {
		t.Errorf("entries[1].Fault = %v, want ErrMalformedPayload", entries[1].Fault)
	}
	if !errors.Is(entries[2].Fault, ErrUndecodableRecord) {
		t.Errorf("entries[2].Fault = %v, want ErrUndecodableRecord", entries[2].Fault)
	}

	found, err := store.FindByContentID(ctx, "content-002")
	if err != nil {
		t.Fatalf("FindByContentID(corrupt): %v", err)
	}
	if found.Payload != "AQID" {
		t.Errorf("found.Payload = %q, want %q", found.Payload, "AQID")
	}

	// Inserts keep the elements that could not be decoded.
	if err := store.Insert(ctx, testRecord(3)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	entries, err = store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("len(entries) after insert = %d, want 4", len(entries))
	}
}

func TestNonStringPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	document := `[{"id":"record-001","title":"numeric","contentId":"content-001","payload":12345},` +
		`{"id":"record-002","contentId":"content-002","payload":{"bytes":"AQID"}}]`
	if err := medium.Store(ctx, DefaultKey, []byte(document)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	store := New(medium, Options{})

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Title != "numeric" || records[0].Payload != "12345" {
		t.Errorf("records[0] = %+v, want title kept and raw payload text", records[0])
	}

	entries, err := store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, entry := range entries {
		if !errors.Is(entry.Fault, dataurl.ErrMalformedPayload) {
			t.Errorf("entries[%d].Fault = %v, want ErrMalformedPayload", entry.Index, entry.Fault)
		}
	}

	found, err := store.FindByContentID(ctx, "content-001")
	if err != nil {
		t.Fatalf("FindByContentID: %v", err)
	}
	if err := dataurl.Check(found.Payload); !errors.Is(err, dataurl.ErrMalformedPayload) {
		t.Errorf("Check(found.Payload) = %v, want ErrMalformedPayload", err)
	}
}

func TestDrainKeepsUndecodableElements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	good := testRecord(1)
	goodJSON, err := json.Marshal(good)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	orphan := `{"title":"no id","payload":"AQID"}`
	numeric := `{"id":"record-009","contentId":"content-009","payload":12345}`
	document := "[" + string(goodJSON) + "," + orphan + "," + numeric + ",42]"
	if err := medium.Store(ctx, DefaultKey, []byte(document)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	store := New(medium, Options{})

	var drained Contents
	if err := store.Drain(ctx, func(contents Contents) error {
		drained = contents
		return nil
	}); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	if len(drained.Records) != 1 || !sameRecord(drained.Records[0], good) {
		t.Errorf("drained.Records = %+v, want only %s", drained.Records, good.ID)
	}
	want := []string{orphan, numeric, "42"}
	if len(drained.Verbatim) != len(want) {
		t.Fatalf("len(drained.Verbatim) = %d, want %d", len(drained.Verbatim), len(want))
	}
	for i, element := range drained.Verbatim {
		if string(element) != want[i] {
			t.Errorf("drained.Verbatim[%d] = %s, want %s", i, element, want[i])
		}
	}
}

func TestUnreadableDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	if err := medium.Store(ctx, DefaultKey, []byte(`{"not":"an array"}`)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	store := New(medium, Options{})

	if _, err := store.List(ctx); !errors.Is(err, ErrCatalogUnreadable) {
		t.Errorf("List error = %v, want ErrCatalogUnreadable", err)
	}
	if _, err := store.FindByContentID(ctx, "x"); !errors.Is(err, ErrCatalogUnreadable) {
		t.Errorf("FindByContentID error = %v, want ErrCatalogUnreadable", err)
	}
	if err := store.Insert(ctx, testRecord(1)); !errors.Is(err, ErrPersistenceWriteFailed) {
		t.Errorf("Insert error = %v, want ErrPersistenceWriteFailed", err)
	}
}

func TestFindByContentIDNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})
	if _, err := store.FindByContentID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByContentID(empty catalog) error = %v, want ErrNotFound", err)
	}

	if err := store.Insert(ctx, testRecord(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.FindByContentID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByContentID error = %v, want ErrNotFound", err)
	}
	found, err := store.FindByContentID(ctx, testRecord(1).ContentID)
	if err != nil {
		t.Fatalf("FindByContentID: %v", err)
	}
	if !sameRecord(found, testRecord(1)) {
		t.Errorf("found = %+v, want %+v", found, testRecord(1))
	}
}

func TestConcurrentInserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})

	const writers = 32
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.Insert(ctx, testRecord(i))
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Insert(%d): %v", i, err)
		}
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != writers {
		t.Fatalf("len(records) = %d, want %d", len(records), writers)
	}
	seen := make(map[string]bool)
	for _, record := range records {
		if seen[record.ContentID] {
			t.Errorf("content id %s appears twice", record.ContentID)
		}
		seen[record.ContentID] = true
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})
	for i := range 3 {
		if err := store.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) after Clear = %d, want 0", len(records))
	}
	// Clearing an empty catalog is fine.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestDrain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemoryMedium(), Options{})
	for i := range 3 {
		if err := store.Insert(ctx, testRecord(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	failure := errors.New("backup failed")
	err := store.Drain(ctx, func(Contents) error { return failure })
	if !errors.Is(err, failure) {
		t.Fatalf("Drain error = %v, want %v", err, failure)
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) after failed drain = %d, want 3", len(records))
	}

	var drained Contents
	err = store.Drain(ctx, func(contents Contents) error {
		drained = contents
		return nil
	})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(drained.Records) != 3 || len(drained.Verbatim) != 0 {
		t.Errorf("drained %d records and %d verbatim elements, want 3 and 0",
			len(drained.Records), len(drained.Verbatim))
	}
	records, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) after drain = %d, want 0", len(records))
	}
}

func TestCustomKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := NewMemoryMedium()
	store := New(medium, Options{Key: "archive"})
	if err := store.Insert(ctx, testRecord(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	data, err := medium.Load(ctx, "archive")
	if err != nil {
		t.Fatalf("Load(archive): %v", err)
	}
	if !strings.Contains(string(data), `"contentId":"content-001"`) {
		t.Errorf("document = %s, want it to contain the record", data)
	}
	if _, err := medium.Load(ctx, DefaultKey); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Load(default key) error = %v, want ErrKeyNotFound", err)
	}
}
