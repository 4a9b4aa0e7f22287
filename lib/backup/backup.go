// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/clock"
	"github.com/reelstore/reelstore/lib/codec"
)

const (
	magic         = "RSBK"
	formatVersion = 1
	headerSize    = 15

	flagEncrypted = 1 << 0

	// FileExtension is appended to every snapshot file name.
	FileExtension = ".rsbk"

	// MaxSnapshotBytes bounds the uncompressed body a reader will
	// allocate for.
	MaxSnapshotBytes = 4 << 30
)

var (
	// ErrNotSnapshot is returned for files without the snapshot magic.
	ErrNotSnapshot = errors.New("not a reelstore backup")

	// ErrUnsupportedVersion is returned for a snapshot written by a
	// newer format version.
	ErrUnsupportedVersion = errors.New("unsupported backup format version")

	// ErrIdentityRequired is returned when an encrypted snapshot is
	// opened without an age identity.
	ErrIdentityRequired = errors.New("backup is encrypted; an age identity is required")
)

// Snapshot is the decoded body of a backup file.
type Snapshot struct {
	Version   int                   `json:"version"`
	CreatedAt time.Time             `json:"createdAt"`
	Key       string                `json:"key"`
	Records   []catalog.MediaRecord `json:"records"`

	// Verbatim holds catalog elements that were not valid records,
	// as the original JSON text.
	Verbatim [][]byte `json:"verbatim,omitempty"`
}

// Info describes a snapshot file's header.
type Info struct {
	Compression Compression
	Encrypted   bool
	// Size is the length of the CBOR body before compression.
	Size uint64
	// StoredBytes is the file size.
	StoredBytes int64
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Dir receives snapshot files. Created if absent.
	Dir string

	Compression Compression

	// Recipients are age X25519 public keys (age1...). When
	// non-empty every snapshot is encrypted to all of them.
	Recipients []string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Writer writes snapshot files into one directory.
type Writer struct {
	dir         string
	compression Compression
	recipients  []age.Recipient
	clock       clock.Clock
	logger      *slog.Logger
}

// NewWriter validates options and creates the directory.
func NewWriter(options WriterOptions) (*Writer, error) {
	if options.Dir == "" {
		return nil, fmt.Errorf("backup: directory is required")
	}
	if err := os.MkdirAll(options.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("backup: creating %s: %w", options.Dir, err)
	}

	recipients := make([]age.Recipient, 0, len(options.Recipients))
	for _, key := range options.Recipients {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("backup: parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{
		dir:         options.Dir,
		compression: options.Compression,
		recipients:  recipients,
		clock:       clk,
		logger:      logger,
	}, nil
}

// Write snapshots the contents of the catalog document stored under
// key and returns the file path.
func (w *Writer) Write(ctx context.Context, key string, contents catalog.Contents) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	records := contents.Records
	if records == nil {
		records = []catalog.MediaRecord{}
	}
	var verbatim [][]byte
	for _, element := range contents.Verbatim {
		verbatim = append(verbatim, []byte(element))
	}

	now := w.clock.Now().UTC()
	body, err := codec.Marshal(Snapshot{
		Version:   formatVersion,
		CreatedAt: now,
		Key:       key,
		Records:   records,
		Verbatim:  verbatim,
	})
	if err != nil {
		return "", fmt.Errorf("backup: encoding snapshot: %w", err)
	}

	compressed, algorithm, err := compress(body, w.compression)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	var flags byte
	if len(w.recipients) > 0 {
		compressed, err = encrypt(compressed, w.recipients)
		if err != nil {
			return "", fmt.Errorf("backup: %w", err)
		}
		flags |= flagEncrypted
	}

	header := make([]byte, headerSize)
	copy(header, magic)
	header[4] = formatVersion
	header[5] = byte(algorithm)
	header[6] = flags
	binary.BigEndian.PutUint64(header[7:], uint64(len(body)))

	name := key + "-" + now.Format("20060102T150405.000000000Z") + FileExtension
	path := filepath.Join(w.dir, name)
	if err := writeFileAtomic(path, header, compressed); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	w.logger.Info("catalog snapshot written",
		"path", path,
		"records", len(records),
		"verbatim", len(verbatim),
		"compression", algorithm,
		"encrypted", flags&flagEncrypted != 0,
		"bytes", headerSize+len(compressed),
	)
	return path, nil
}

func encrypt(plaintext []byte, recipients []age.Recipient) ([]byte, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

func writeFileAtomic(path string, chunks ...[]byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	for _, chunk := range chunks {
		if _, err := tmpFile.Write(chunk); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	success = true
	return nil
}

// Archive is an opened snapshot: its header and decrypted,
// decompressed CBOR body.
type Archive struct {
	Info Info
	Body []byte
}

// Snapshot decodes the archive body.
func (a *Archive) Snapshot() (*Snapshot, error) {
	var snapshot Snapshot
	if err := codec.Unmarshal(a.Body, &snapshot); err != nil {
		return nil, fmt.Errorf("backup: decoding snapshot: %w", err)
	}
	return &snapshot, nil
}

// Open reads the snapshot file at path. Encrypted snapshots need at
// least one matching identity.
func Open(path string, identities ...age.Identity) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backup: reading %s: %w", path, err)
	}
	archive, err := Decode(data, identities...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return archive, nil
}

// Decode parses a snapshot held in memory.
func Decode(data []byte, identities ...age.Identity) (*Archive, error) {
	info, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	info.StoredBytes = int64(len(data))

	body := data[headerSize:]
	if info.Encrypted {
		if len(identities) == 0 {
			return nil, ErrIdentityRequired
		}
		reader, err := age.Decrypt(bytes.NewReader(body), identities...)
		if err != nil {
			return nil, fmt.Errorf("backup: decrypting: %w", err)
		}
		body, err = io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("backup: reading decrypted body: %w", err)
		}
	}

	plain, err := decompress(body, info.Compression, int(info.Size))
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	return &Archive{Info: info, Body: plain}, nil
}

func parseHeader(data []byte) (Info, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return Info{}, ErrNotSnapshot
	}
	if data[4] != formatVersion {
		return Info{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[4])
	}
	info := Info{
		Compression: Compression(data[5]),
		Encrypted:   data[6]&flagEncrypted != 0,
		Size:        binary.BigEndian.Uint64(data[7:headerSize]),
	}
	if info.Size > MaxSnapshotBytes {
		return Info{}, fmt.Errorf("backup: body size %d exceeds limit %d", info.Size, MaxSnapshotBytes)
	}
	return info, nil
}

// Stat reads only the header of the snapshot at path. It needs no
// identity for encrypted snapshots.
func Stat(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("backup: %w", err)
	}
	defer file.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNotSnapshot)
	}
	info, err := parseHeader(header)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	stat, err := file.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("backup: %w", err)
	}
	info.StoredBytes = stat.Size()
	return info, nil
}

// File is a snapshot found by [List].
type File struct {
	Path string
	Info Info
}

// List returns the snapshots in dir, oldest first. Files with the
// snapshot extension but a foreign header are skipped and logged.
func List(dir string, logger *slog.Logger) ([]File, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*"+FileExtension))
	if err != nil {
		return nil, fmt.Errorf("backup: listing %s: %w", dir, err)
	}
	// Names end in a fixed-width UTC timestamp, so per-key lexical
	// order is chronological. Across keys, sort by the stamp.
	slices.SortStableFunc(paths, func(a, b string) int {
		return strings.Compare(stamp(a), stamp(b))
	})

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		info, err := Stat(path)
		if err != nil {
			logger.Warn("skipping unreadable snapshot", "path", path, "error", err)
			continue
		}
		files = append(files, File{Path: path, Info: info})
	}
	return files, nil
}

func stamp(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), FileExtension)
	if index := strings.LastIndexByte(name, '-'); index >= 0 {
		return name[index+1:]
	}
	return name
}

// ReadIdentities parses an age identity file (one AGE-SECRET-KEY-1...
// per line, # comments allowed).
func ReadIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backup: opening identity file: %w", err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("backup: parsing identity file %s: %w", path, err)
	}
	return identities, nil
}
