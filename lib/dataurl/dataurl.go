// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Scheme is the literal prefix every encoded payload starts with.
const Scheme = "data:"

// Marker separates the header from the base64 body. Its presence is
// what declares the text form to be a binary payload.
const Marker = ";base64,"

// DefaultMediaType is used by [Encode] when the caller does not know
// what the bytes are.
const DefaultMediaType = "application/octet-stream"

// ErrMalformedPayload is returned when text is not a well-formed
// encoded payload: missing scheme, missing base64 marker, or a body
// that is not strict base64.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrInvalidMediaType is returned by [EncodeWithType] for media types
// that cannot be carried in the data URL header.
var ErrInvalidMediaType = errors.New("invalid media type")

// encoding is padded standard base64 in strict mode: non-canonical
// trailing bits are rejected so that each text form maps back to
// exactly one byte sequence.
var encoding = base64.StdEncoding.Strict()

// Payload is a decoded data URL.
type Payload struct {
	MediaType string
	Data      []byte
}

// Encode returns the text form of data with [DefaultMediaType].
func Encode(data []byte) string {
	return build(DefaultMediaType, data)
}

// EncodeWithType returns the text form of data labelled with
// mediaType. An empty mediaType means [DefaultMediaType]. Media type
// parameters are not allowed: the header may contain nothing but the
// type and the base64 marker.
func EncodeWithType(mediaType string, data []byte) (string, error) {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	if err := validateMediaType(mediaType); err != nil {
		return "", err
	}
	return build(mediaType, data), nil
}

func build(mediaType string, data []byte) string {
	var builder strings.Builder
	builder.Grow(len(Scheme) + len(mediaType) + len(Marker) + encoding.EncodedLen(len(data)))
	builder.WriteString(Scheme)
	builder.WriteString(mediaType)
	builder.WriteString(Marker)
	builder.WriteString(encoding.EncodeToString(data))
	return builder.String()
}

func validateMediaType(mediaType string) error {
	parsed, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidMediaType, mediaType, err)
	}
	// ParseMediaType also accepts bare dispositions like "inline".
	if !strings.Contains(parsed, "/") {
		return fmt.Errorf("%w: %q: missing subtype", ErrInvalidMediaType, mediaType)
	}
	if len(params) != 0 || parsed != strings.ToLower(mediaType) {
		return fmt.Errorf("%w: %q: parameters are not allowed", ErrInvalidMediaType, mediaType)
	}
	return nil
}

// Check verifies the codec tag without decoding the body. It is the
// validity assertion run before any decode and on every catalog read.
func Check(text string) error {
	_, _, err := split(text)
	return err
}

// Decode returns the bytes carried by text.
func Decode(text string) ([]byte, error) {
	payload, err := DecodeWithType(text)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// DecodeWithType returns the bytes and the declared media type
// carried by text. An empty declared type is reported as
// [DefaultMediaType].
func DecodeWithType(text string) (Payload, error) {
	mediaType, body, err := split(text)
	if err != nil {
		return Payload{}, err
	}

	// DecodeString tolerates embedded newlines; the framing rules do not.
	if strings.ContainsAny(body, "\r\n") {
		return Payload{}, fmt.Errorf("%w: body contains line breaks", ErrMalformedPayload)
	}
	data, err := encoding.DecodeString(body)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if data == nil {
		data = []byte{}
	}

	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return Payload{MediaType: mediaType, Data: data}, nil
}

// split separates the header media type from the base64 body.
func split(text string) (mediaType, body string, err error) {
	if !strings.HasPrefix(text, Scheme) {
		return "", "", fmt.Errorf("%w: missing %q prefix", ErrMalformedPayload, Scheme)
	}
	rest := text[len(Scheme):]

	// The header ends at the first comma; base64 never contains one.
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", fmt.Errorf("%w: missing %q marker", ErrMalformedPayload, Marker)
	}
	header := rest[:comma+1]
	if !strings.HasSuffix(header, Marker) {
		return "", "", fmt.Errorf("%w: missing %q marker", ErrMalformedPayload, Marker)
	}
	return strings.TrimSuffix(header, Marker), rest[comma+1:], nil
}

// Preview returns at most n leading characters of text for log
// messages, so multi-megabyte payloads never end up in a log line.
func Preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
