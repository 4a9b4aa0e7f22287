// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// time.Time fields (record creation times) travel as RFC 3339
	// text with nanoseconds so a JSON record and its CBOR copy agree.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// any-typed targets decode maps as map[string]any, which is
		// what the JSON side produces too.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Snapshots hold whole video payloads.
		MaxArrayElements: 1 << 24,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v. Unknown fields are ignored.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
// Byte strings longer than maxBytes are elided so a snapshot full of
// video payloads stays readable. Zero disables elision.
func Diagnose(data []byte, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		return cbor.Diagnose(data)
	}

	var value any
	if err := Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("codec: decoding for diagnosis: %w", err)
	}
	trimmed, err := Marshal(elide(value, maxBytes))
	if err != nil {
		return "", fmt.Errorf("codec: re-encoding for diagnosis: %w", err)
	}
	return cbor.Diagnose(trimmed)
}

func elide(value any, maxBytes int) any {
	switch v := value.(type) {
	case []byte:
		if len(v) > maxBytes {
			return fmt.Sprintf("<%d bytes>", len(v))
		}
	case string:
		if len(v) > maxBytes {
			return v[:maxBytes] + fmt.Sprintf("...<%d bytes>", len(v))
		}
	case []any:
		out := make([]any, len(v))
		for i, element := range v {
			out[i] = elide(element, maxBytes)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, element := range v {
			out[key] = elide(element, maxBytes)
		}
		return out
	}
	return value
}
