// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package codec selects and implements the wire formats spoken between a
// typedapi client and server.
//
// Two formats are supported: JSON ([JSON]) and a binary structured codec
// ([Structured]) which can represent values JSON cannot, such as 64-bit
// integers, timestamps and raw bytes.
package codec

import (
	"mime"
	"strings"
)

// Media types recognized in Accept and Content-Type headers.
const (
	MediaTypeJSON       = "application/json"
	MediaTypeStructured = "application/escodec"
	MediaTypeMultipart  = "multipart/form-data"
	MediaTypeWildcard   = "*/*"
)

// Codec encodes and decodes values for a single media type.
//
// Unmarshal into a *any yields plain Go values: map[string]any, []any,
// string, bool, nil and the codec's number representation.
type Codec interface {
	MediaType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Accepts reports whether the Accept header value names at least one
// supported response format.
func Accepts(accept string) bool {
	_, ok := Negotiate(accept)
	return ok
}

// Negotiate picks the response codec for an Accept header value. JSON is
// preferred whenever it, or the wildcard, is acceptable.
func Negotiate(accept string) (Codec, bool) {
	switch {
	case strings.Contains(accept, MediaTypeJSON), strings.Contains(accept, MediaTypeWildcard):
		return JSON, true
	case strings.Contains(accept, MediaTypeStructured):
		return Structured, true
	default:
		return nil, false
	}
}

// ForContentType returns the codec for a Content-Type header value. Media
// type parameters, e.g. charset, are ignored.
func ForContentType(contentType string) (Codec, bool) {
	switch MediaType(contentType) {
	case MediaTypeJSON:
		return JSON, true
	case MediaTypeStructured:
		return Structured, true
	default:
		return nil, false
	}
}

// MediaType returns the lowercased media type of a Content-Type header
// value without its parameters. Malformed values are returned trimmed and
// lowercased.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// IsMultipart reports whether the Content-Type is a multipart form.
func IsMultipart(contentType string) bool {
	return strings.HasPrefix(MediaType(contentType), MediaTypeMultipart)
}
