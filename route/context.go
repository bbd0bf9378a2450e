// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"maps"
	"net/http"
)

// Context is the per request value handed to business functions.
type Context struct {
	context.Context

	// Request is the inbound request.
	Request *http.Request

	// Response holds the metadata of the response being built. It is owned
	// by the in-flight request and may be mutated until the business
	// function returns.
	Response *Response

	params  map[string]string
	headers map[string]string
}

// Params returns the path parameters supplied by the host router.
func (c *Context) Params() map[string]string {
	return maps.Clone(c.params)
}

// Param returns a single path parameter, or "" if it is not present.
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Header returns the value of a request header. Headers declared with a
// schema return their validated value.
func (c *Context) Header(name string) string {
	v, ok := c.headers[http.CanonicalHeaderKey(name)]
	if ok {
		return v
	}
	return c.Request.Header.Get(name)
}

func (c *Context) setHeader(name, value string) {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	key := http.CanonicalHeaderKey(name)
	c.headers[key] = value
	c.Request.Header.Set(key, value)
}

// Response is the response metadata a business function may adjust.
type Response struct {
	Status     int
	StatusText string

	header http.Header
}

func newResponse() *Response {
	return &Response{
		Status:     http.StatusOK,
		StatusText: http.StatusText(http.StatusOK),
		header:     make(http.Header),
	}
}

// Header returns the response headers. The returned map may be mutated but
// cannot be replaced.
func (r *Response) Header() http.Header {
	return r.header
}

type paramsCtxKey struct{}

// WithParams returns a copy of ctx carrying the path parameters matched by
// the host router. Routes read them back through [Context.Params].
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsCtxKey{}, params)
}

func paramsFrom(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsCtxKey{}).(map[string]string)
	if params == nil {
		return map[string]string{}
	}
	return params
}

type errorHandlingCtxKey struct{}

type errorHandling struct {
	handler      ErrorHandler
	exposeCauses bool
}

// WithErrorHandling returns a copy of ctx carrying the error handling of the
// host serving a route. eh replaces the default [ErrorHandler] of routes
// which were not built with [OnError] and may be nil. When exposeCauses is
// true routes expose error causes as if built with [ExposeCauses].
func WithErrorHandling(ctx context.Context, eh ErrorHandler, exposeCauses bool) context.Context {
	return context.WithValue(ctx, errorHandlingCtxKey{}, errorHandling{
		handler:      eh,
		exposeCauses: exposeCauses,
	})
}

func errorHandlingFrom(ctx context.Context) errorHandling {
	eh, _ := ctx.Value(errorHandlingCtxKey{}).(errorHandling)
	return eh
}
