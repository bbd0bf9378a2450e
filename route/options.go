// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/schema"
)

// DefaultMaxBodySize is the largest request body a route reads unless
// configured otherwise with [MaxBodySize].
const DefaultMaxBodySize int64 = 10 << 20

// DefaultMaxMemory is the default in memory limit for multipart forms.
const DefaultMaxMemory int64 = 32 << 20

// HttpResponseWriter is implemented by errors which know how to render
// themselves as an HTTP response.
type HttpResponseWriter interface {
	WriteHttpResponse(context.Context, http.ResponseWriter)
}

// ErrorHandler handles pipeline failures which are not rendered by the
// pipeline itself, e.g. a missing Accept header or an unserializable output.
type ErrorHandler interface {
	OnError(context.Context, http.ResponseWriter, error)
}

// ErrorHandlerFunc is a function adapter that implements [ErrorHandler].
type ErrorHandlerFunc func(context.Context, http.ResponseWriter, error)

// OnError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	f(ctx, w, err)
}

// Options holds the configuration of a route.
type Options struct {
	errHandler   ErrorHandler
	maxBodySize  int64
	maxMemory    int64
	exposeCauses bool
	strict       bool
	capability   schema.Capability
}

// Option configures a route built with [New] or [Define].
type Option func(*Options)

// OnError overrides the handler used for pipeline failures. It takes
// precedence over a handler supplied by the host with [WithErrorHandling].
func OnError(eh ErrorHandler) Option {
	return func(o *Options) {
		o.errHandler = eh
	}
}

// MaxBodySize limits the number of request body bytes read.
func MaxBodySize(n int64) Option {
	return func(o *Options) {
		o.maxBodySize = n
	}
}

// MaxMemory sets how much of a multipart form is kept in memory, the rest
// is stored in temporary files.
func MaxMemory(n int64) Option {
	return func(o *Options) {
		o.maxMemory = n
	}
}

// StrictContentType rejects request bodies whose Content-Type is neither
// JSON, the structured codec nor a multipart form. By default such bodies
// are passed through to the business function as raw bytes.
func StrictContentType() Option {
	return func(o *Options) {
		o.strict = true
	}
}

// ExposeCauses includes the cause of pipeline and unclassified errors in
// error responses. Causes are redacted by default.
func ExposeCauses() Option {
	return func(o *Options) {
		o.exposeCauses = true
	}
}

// WithValidator sets the schema validation capability used by [Define].
// It defaults to [schema.KinOpenAPI].
func WithValidator(c schema.Capability) Option {
	return func(o *Options) {
		o.capability = c
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		maxBodySize: DefaultMaxBodySize,
		maxMemory:   DefaultMaxMemory,
		capability:  schema.KinOpenAPI(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultErrorHandler logs err and renders it. Taxonomy errors are written
// with a trace id which is also logged so the two can be correlated.
func DefaultErrorHandler(h slog.Handler, exposeCauses bool) ErrorHandlerFunc {
	log := slog.New(h)

	return func(ctx context.Context, w http.ResponseWriter, err error) {
		traceID := apierr.NewTraceID()
		log.ErrorContext(
			ctx,
			"sending error response",
			slog.String("trace_id", traceID),
			slog.Any("error", err),
		)

		if e, ok := err.(*apierr.Error); ok {
			apierr.Write(ctx, w, e, traceID, exposeCauses)
			return
		}

		hrw, ok := err.(HttpResponseWriter)
		if ok {
			hrw.WriteHttpResponse(ctx, w)
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}
}
