// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package contentid derives the identifiers attached to stored media:
// the content identifier callers use to fetch a payload back, and the
// record identifier that keys a catalog entry.
//
// Content identifiers are opaque tokens, not content hashes. Each call
// to [Generator.Derive] mixes fresh entropy into a BLAKE3 keyed hash
// of the payload, so uploading the same bytes twice yields two
// different identifiers and no deduplication takes place. What the
// identifier does guarantee is a fixed recognizable prefix ([Prefix])
// and 192 bits of hash output, which makes collisions within a
// catalog practically impossible.
//
// Record identifiers are UUIDv7 strings: time ordered, so catalog
// listings sorted by id match insertion order within a session.
package contentid

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Prefix starts every content identifier. It matches the piece
// commitment prefix used by the storage network, so identifiers are
// distinguishable from record IDs, wallet addresses, and tags.
const Prefix = "baga6ea4seaq"

// digestBytes is how much of the 32-byte BLAKE3 output is rendered
// into the identifier.
const digestBytes = 24

// entropyBytes is the amount of randomness mixed into each identifier.
const entropyBytes = 32

// Length is the total length of a content identifier string.
var Length = len(Prefix) + identifierEncoding.EncodedLen(digestBytes)

// ErrGenerationFailed is returned when the entropy source cannot
// supply randomness.
var ErrGenerationFailed = errors.New("identifier generation failed")

// identifierEncoding is RFC 4648 base32 in lower case without padding,
// the multibase "b" alphabet.
var identifierEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// domainKey is a 32-byte BLAKE3 key. Separate domains keep an
// identifier hash from ever equalling a payload digest.
type domainKey [32]byte

var (
	identifierDomainKey = domainKey{
		'r', 'e', 'e', 'l', 's', 't', 'o', 'r', 'e', '.', 'c', 'o', 'n', 't', 'e', 'n',
		't', '.', 'i', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	payloadDomainKey = domainKey{
		'r', 'e', 'e', 'l', 's', 't', 'o', 'r', 'e', '.', 'p', 'a', 'y', 'l', 'o', 'a',
		'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Generator produces content and record identifiers from an entropy
// source.
type Generator struct {
	// Entropy supplies randomness. Tests substitute a deterministic
	// or failing reader.
	Entropy io.Reader
}

// New returns a Generator backed by crypto/rand.
func New() *Generator {
	return &Generator{Entropy: rand.Reader}
}

// Derive returns a fresh content identifier for payload.
func (g *Generator) Derive(payload []byte) (string, error) {
	var entropy [entropyBytes]byte
	if _, err := io.ReadFull(g.Entropy, entropy[:]); err != nil {
		return "", fmt.Errorf("%w: reading entropy: %v", ErrGenerationFailed, err)
	}

	hasher := newKeyedHasher(identifierDomainKey)
	hasher.Write(entropy[:])
	hasher.Write(payload)
	digest := hasher.Sum(nil)

	return Prefix + identifierEncoding.EncodeToString(digest[:digestBytes]), nil
}

// RecordID returns a new UUIDv7 record identifier.
func (g *Generator) RecordID() (string, error) {
	id, err := uuid.NewV7FromReader(g.Entropy)
	if err != nil {
		return "", fmt.Errorf("%w: record id: %v", ErrGenerationFailed, err)
	}
	return id.String(), nil
}

// Valid reports whether id is syntactically a content identifier.
func Valid(id string) bool {
	if len(id) != Length || !strings.HasPrefix(id, Prefix) {
		return false
	}
	_, err := identifierEncoding.DecodeString(id[len(Prefix):])
	return err == nil
}

// Digest returns the hex payload digest stored alongside a record and
// checked again on download.
func Digest(payload []byte) string {
	hasher := newKeyedHasher(payloadDomainKey)
	hasher.Write(payload)
	return hex.EncodeToString(hasher.Sum(nil))
}

func newKeyedHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for keys that are not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("contentid: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
