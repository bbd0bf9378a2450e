// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/z5labs/sdk-go/try"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/schema"
)

// FetchFunc is the business function of a route.
type FetchFunc[I, O any] func(*Context, I) (O, error)

// Definition declares a route: the schemas its headers, input and output
// must satisfy, its documentation and the business function itself.
//
// Input and Output are optional. Without an Input schema the decoded input
// is converted into I as is. Use [schema.Void] for routes which take no
// input.
type Definition[I, O any] struct {
	Input   schema.Schema[I]
	Output  schema.Schema[O]
	Headers map[string]schema.Schema[string]
	Meta    *Meta
	Fetch   FetchFunc[I, O]
}

// Route is both the [Definition] it was built from and the [http.Handler]
// serving it.
type Route[I, O any] struct {
	def     Definition[I, O]
	handler *Handler
	engine  schema.Engine
	headers []string

	// failure is returned for every request when the route cannot enforce
	// its declared schemas.
	failure error
}

// Define builds a [Route] from def.
//
// Declared schemas are enforced in order: headers, input, the business
// function and finally the output. Errors returned by the business function
// are reported as ProcedureFailed unless they are an [*Error].
//
// When the route is built with [schema.Unavailable] and declares any schema,
// or one of its schemas reports itself as invalid, every request fails.
func Define[I, O any](def Definition[I, O], opts ...Option) *Route[I, O] {
	rt := &Route[I, O]{
		def: def,
	}
	for name := range def.Headers {
		rt.headers = append(rt.headers, name)
	}
	slices.Sort(rt.headers)

	rt.handler = New(rt.fetch, opts...)

	switch c := rt.handler.opts.capability.(type) {
	case schema.Engine:
		rt.engine = c
	default:
		if rt.declaresSchema() {
			rt.failure = apierr.NewValidatorNotInstalled()
		}
	}
	if rt.failure == nil {
		rt.failure = rt.checkSchemas(context.Background())
	}
	return rt
}

func (rt *Route[I, O]) declaresSchema() bool {
	return rt.def.Input != nil || rt.def.Output != nil || len(rt.def.Headers) > 0
}

func (rt *Route[I, O]) checkSchemas(ctx context.Context) error {
	candidates := []any{rt.def.Input, rt.def.Output}
	for _, name := range rt.headers {
		candidates = append(candidates, rt.def.Headers[name])
	}
	for _, s := range candidates {
		sc, ok := s.(schema.SelfChecker)
		if !ok {
			continue
		}
		err := sc.Validate(ctx)
		if err != nil {
			return apierr.NewInvalidSchema(err)
		}
	}
	return nil
}

// Definition returns the definition the route was built from.
func (rt *Route[I, O]) Definition() Definition[I, O] {
	return rt.def
}

// ServeHTTP implements the [http.Handler] interface.
func (rt *Route[I, O]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

func (rt *Route[I, O]) fetch(c *Context, raw any) (any, error) {
	if rt.failure != nil {
		return nil, rt.failure
	}
	if rt.def.Fetch == nil {
		return nil, apierr.NewProcedureFailed(errMissingFetch, c.Request.URL.String())
	}

	c.Context = rt.engine.Bind(c.Context)
	url := c.Request.URL.String()

	err := rt.validateHeaders(c, url)
	if err != nil {
		return nil, err
	}

	input, err := rt.parseInput(c, raw)
	if err != nil {
		return nil, apierr.NewInputValidationFailed(err, url)
	}

	output, err := rt.call(c, input)
	if err != nil {
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, apierr.NewProcedureFailed(err, url)
	}

	if rt.def.Output == nil {
		return output, nil
	}
	validated, err := rt.def.Output.Parse(c, output)
	if err != nil {
		return nil, apierr.NewOutputValidationFailed(err, url)
	}
	return validated, nil
}

func (rt *Route[I, O]) validateHeaders(c *Context, url string) error {
	for _, name := range rt.headers {
		values := c.Request.Header.Values(name)
		if len(values) == 0 {
			return apierr.NewInvalidHeaderEncountered(MissingHeaderError{Name: name}, url)
		}

		v, err := rt.def.Headers[name].Parse(c, values[0])
		if err != nil {
			return apierr.NewInvalidHeaderEncountered(InvalidHeaderError{Name: name, Cause: err}, url)
		}
		c.setHeader(name, v)
	}
	return nil
}

func (rt *Route[I, O]) parseInput(c *Context, raw any) (I, error) {
	if rt.def.Input != nil {
		return rt.def.Input.Parse(c, raw)
	}
	return schema.Convert[I](raw)
}

func (rt *Route[I, O]) call(c *Context, input I) (output O, err error) {
	defer plainPanic(&err)
	defer try.Recover(&err)

	return rt.def.Fetch(c, input)
}

// Describe implements the [Endpoint] interface.
func (rt *Route[I, O]) Describe() Description {
	d := Description{
		InputType:  reflect.TypeFor[I](),
		OutputType: reflect.TypeFor[O](),
		NoInput:    schema.IsVoid(rt.def.Input),
		Meta:       rt.def.Meta,
	}
	if d.NoInput {
		d.InputType = nil
	}
	d.InputSchema = definitionOf(rt.def.Input)
	d.OutputSchema = definitionOf(rt.def.Output)

	for _, name := range rt.headers {
		hd := HeaderDescription{
			Name:   name,
			Schema: definitionOf(rt.def.Headers[name]),
		}
		if rt.def.Meta != nil {
			hd.Meta = rt.def.Meta.Headers[name]
		}
		d.Headers = append(d.Headers, hd)
	}
	return d
}

type definer interface {
	Definition() *openapi3.Schema
}

func definitionOf(s any) *openapi3.Schema {
	d, ok := s.(definer)
	if !ok {
		return nil
	}
	return d.Definition()
}

// MissingHeaderError is the cause of an InvalidHeaderEncountered failure
// for a declared header which was not sent.
type MissingHeaderError struct {
	Name string
}

// Error implements the [error] interface.
func (e MissingHeaderError) Error() string {
	return fmt.Sprintf("missing required header: %s", e.Name)
}

// InvalidHeaderError is the cause of an InvalidHeaderEncountered failure
// for a header rejected by its schema.
type InvalidHeaderError struct {
	Name  string
	Cause error
}

// Error implements the [error] interface.
func (e InvalidHeaderError) Error() string {
	return fmt.Sprintf("invalid header %s: %v", e.Name, e.Cause)
}

// Unwrap returns the schema error.
func (e InvalidHeaderError) Unwrap() error {
	return e.Cause
}
