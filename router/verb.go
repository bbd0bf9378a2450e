// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"net/http"
	"slices"
)

// All is the verb of a handler serving every HTTP method.
const All = "ALL"

var verbs = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
	All,
}

// Verbs returns every verb an endpoint may export.
func Verbs() []string {
	return slices.Clone(verbs)
}

// IsVerb reports whether v is an uppercase HTTP method or [All].
func IsVerb(v string) bool {
	return slices.Contains(verbs, v)
}

// IsMethod reports whether m is an uppercase HTTP method a request can be
// sent with.
func IsMethod(m string) bool {
	return m != All && IsVerb(m)
}

// InvalidVerbError is returned for verbs which are not uppercase HTTP
// methods or [All].
type InvalidVerbError struct {
	Verb string
}

// Error implements the [error] interface.
func (e InvalidVerbError) Error() string {
	return fmt.Sprintf("router: invalid verb %q, expected one of %v", e.Verb, verbs)
}
