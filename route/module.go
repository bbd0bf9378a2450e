// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/z5labs/typedapi/router"
)

var errMissingFetch = errors.New("route: definition has no fetch function")

// Endpoint is a handler which can describe its contract.
type Endpoint interface {
	http.Handler

	Describe() Description
}

// Module holds the handlers of one endpoint keyed by verb.
type Module map[string]Endpoint

// Validate reports the first key of m which is not a valid verb.
func (m Module) Validate() error {
	for _, verb := range m.Verbs() {
		if !router.IsVerb(verb) {
			return router.InvalidVerbError{Verb: verb}
		}
		if m[verb] == nil {
			return fmt.Errorf("route: nil handler for verb %s", verb)
		}
	}
	return nil
}

// Verbs returns the keys of m in sorted order.
func (m Module) Verbs() []string {
	vs := make([]string, 0, len(m))
	for v := range m {
		vs = append(vs, v)
	}
	slices.Sort(vs)
	return vs
}

// Meta documents a route.
type Meta struct {
	Summary      string
	Description  string
	Tags         []string
	Deprecated   bool
	ExternalDocs *ExternalDocs
	Headers      map[string]HeaderMeta
}

// ExternalDocs links to documentation hosted elsewhere.
type ExternalDocs struct {
	URL         string
	Description string
}

// HeaderMeta documents a declared header.
type HeaderMeta struct {
	Description string
	Deprecated  bool
	Example     string
}

// Description is the contract of an [Endpoint].
type Description struct {
	// InputType is nil when the endpoint takes no input.
	InputType  reflect.Type
	OutputType reflect.Type
	NoInput    bool

	InputSchema  *openapi3.Schema
	OutputSchema *openapi3.Schema

	Headers []HeaderDescription
	Meta    *Meta
}

// HeaderDescription describes a declared header.
type HeaderDescription struct {
	Name   string
	Schema *openapi3.Schema
	Meta   HeaderMeta
}
