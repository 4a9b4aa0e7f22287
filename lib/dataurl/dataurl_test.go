// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package dataurl

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	allBytes := make([]byte, 256)
	for i := range allBytes {
		allBytes[i] = byte(i)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single zero", []byte{0}},
		{"ten bytes", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"every byte value", allBytes},
		{"all 0xff", bytes.Repeat([]byte{0xff}, 1000)},
		{"one padding char", []byte{1, 2}},
		{"two padding chars", []byte{1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			text := Encode(test.data)
			decoded, err := Decode(text)
			if err != nil {
				t.Fatalf("Decode(Encode(data)) failed: %v", err)
			}
			if !bytes.Equal(decoded, test.data) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(decoded), len(test.data))
			}
		})
	}
}

func TestRoundTripRandomSizes(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	for size := 0; size < 300; size++ {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(random.UintN(256))
		}
		decoded, err := Decode(Encode(data))
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}

func TestEncodeCarriesTag(t *testing.T) {
	text := Encode([]byte("hello"))
	if text != "data:application/octet-stream;base64,aGVsbG8=" {
		t.Errorf("Encode = %q", text)
	}
	if err := Check(text); err != nil {
		t.Errorf("Check(Encode) = %v", err)
	}
}

func TestEncodeWithType(t *testing.T) {
	text, err := EncodeWithType("video/mp4", []byte{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "data:video/mp4;base64,") {
		t.Errorf("EncodeWithType = %q", text)
	}

	payload, err := DecodeWithType(text)
	if err != nil {
		t.Fatal(err)
	}
	if payload.MediaType != "video/mp4" {
		t.Errorf("MediaType = %q, want video/mp4", payload.MediaType)
	}
	if !bytes.Equal(payload.Data, []byte{0, 1, 2}) {
		t.Errorf("Data = %v", payload.Data)
	}
}

func TestEncodeWithTypeRejectsBadTypes(t *testing.T) {
	for _, mediaType := range []string{
		"video",
		"video/mp4; codecs=avc1",
		"video/mp4,evil",
		" video/mp4",
	} {
		if _, err := EncodeWithType(mediaType, []byte{1}); !errors.Is(err, ErrInvalidMediaType) {
			t.Errorf("EncodeWithType(%q) error = %v, want ErrInvalidMediaType", mediaType, err)
		}
	}
}

func TestEncodeWithTypeEmptyUsesDefault(t *testing.T) {
	text, err := EncodeWithType("", []byte{7})
	if err != nil {
		t.Fatal(err)
	}
	if text != Encode([]byte{7}) {
		t.Errorf("EncodeWithType(\"\") = %q, want %q", text, Encode([]byte{7}))
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"missing scheme", "video/mp4;base64,AAEC"},
		{"plain url", "https://example.com/video.mp4"},
		{"missing marker", "data:video/mp4,AAEC"},
		{"missing comma", "data:video/mp4;base64"},
		{"marker not at header end", "data:;base64;x,AAEC"},
		{"bad alphabet", "data:video/mp4;base64,AA*C"},
		{"missing padding", "data:video/mp4;base64,AQ"},
		{"non canonical bits", "data:video/mp4;base64,AR=="},
		{"embedded newline", "data:video/mp4;base64,AAEC\nAAEC"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(test.text)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedPayload", test.text, err)
			}
		})
	}
}

func TestCheckOnlyInspectsTag(t *testing.T) {
	// A corrupt body passes the tag check; only Decode notices.
	text := "data:video/mp4;base64,***"
	if err := Check(text); err != nil {
		t.Fatalf("Check = %v, want nil", err)
	}
	if _, err := Decode(text); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Decode error = %v, want ErrMalformedPayload", err)
	}

	if err := Check("blob:1234"); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Check(blob) = %v, want ErrMalformedPayload", err)
	}
}

func TestDecodeEmptyHeaderType(t *testing.T) {
	payload, err := DecodeWithType("data:;base64,AQID")
	if err != nil {
		t.Fatal(err)
	}
	if payload.MediaType != DefaultMediaType {
		t.Errorf("MediaType = %q, want %q", payload.MediaType, DefaultMediaType)
	}
	if !bytes.Equal(payload.Data, []byte{1, 2, 3}) {
		t.Errorf("Data = %v", payload.Data)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("data:abc", 20); got != "data:abc" {
		t.Errorf("Preview short = %q", got)
	}
	if got := Preview("data:abcdef", 5); got != "data:..." {
		t.Errorf("Preview long = %q", got)
	}
}
