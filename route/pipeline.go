// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/z5labs/typedapi"
	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/codec"
)

// Handler is the request pipeline wrapped around a business function.
type Handler struct {
	tracer trace.Tracer
	log    *slog.Logger
	opts   *Options
	fetch  func(*Context, any) (any, error)

	redacted ErrorHandler
	exposed  ErrorHandler
}

// New wraps fetch into an [http.Handler].
//
// For every request the handler:
//  1. requires an Accept header naming JSON, the structured codec or */*
//  2. decodes the input from the query string (GET) or the request body
//  3. prepares the response metadata with a 200 OK status
//  4. invokes fetch, rendering returned errors as JSON error responses
//  5. encodes the output in the negotiated format
//  6. writes the response using the (possibly mutated) metadata
//
// Failures in steps 1, 2 and 5 are passed to the route's [ErrorHandler].
func New(fetch func(*Context, any) (any, error), opts ...Option) *Handler {
	logHandler := typedapi.LogHandler("github.com/z5labs/typedapi/route")
	return &Handler{
		tracer:   otel.Tracer("github.com/z5labs/typedapi/route"),
		log:      slog.New(logHandler),
		opts:     newOptions(opts...),
		fetch:    fetch,
		redacted: DefaultErrorHandler(logHandler, false),
		exposed:  DefaultErrorHandler(logHandler, true),
	}
}

// errorHandling resolves the error handler and cause exposure of a request.
// Options of the route take precedence over those of the host.
func (h *Handler) errorHandling(ctx context.Context) (ErrorHandler, bool) {
	host := errorHandlingFrom(ctx)
	expose := h.opts.exposeCauses || host.exposeCauses

	switch {
	case h.opts.errHandler != nil:
		return h.opts.errHandler, expose
	case host.handler != nil:
		return host.handler, expose
	case expose:
		return h.exposed, expose
	default:
		return h.redacted, expose
	}
}

// Describe implements the [Endpoint] interface.
func (h *Handler) Describe() Description {
	anyType := reflect.TypeFor[any]()
	return Description{
		InputType:  anyType,
		OutputType: anyType,
	}
}

// ServeHTTP implements the [http.Handler] interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Handler.ServeHTTP")
	defer span.End()

	eh, expose := h.errorHandling(ctx)

	var err error
	defer func() {
		if err == nil {
			return
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		eh.OnError(ctx, w, err)
	}()
	defer plainPanic(&err)
	defer try.Recover(&err)

	err = h.serve(ctx, w, r, expose)
}

func (h *Handler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, exposeCauses bool) error {
	accept := r.Header.Values("Accept")
	if len(accept) == 0 {
		return apierr.NewAcceptHeaderMissing(r)
	}
	out, ok := codec.Negotiate(strings.Join(accept, ","))
	if !ok {
		return apierr.NewUnsupportedClient(r)
	}

	input, err := h.decode(ctx, w, r)
	if err != nil {
		return err
	}

	rc := &Context{
		Context:  ctx,
		Request:  r,
		Response: newResponse(),
		params:   paramsFrom(ctx),
	}

	output, err := h.invoke(rc, input)
	if err != nil {
		h.writeFailure(ctx, w, err, exposeCauses)
		return nil
	}

	body, err := h.encode(ctx, out, output)
	if err != nil {
		return apierr.NewOutputNotSerializable(err, r.URL.String())
	}

	header := w.Header()
	for k, vs := range rc.Response.Header() {
		header[k] = vs
	}
	header.Set("Content-Type", out.MediaType())

	status := rc.Response.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err = w.Write(body)
	if err != nil {
		// the status line is already out so there is nothing left to render
		h.log.WarnContext(ctx, "failed to write response body", slog.Any("error", err))
	}
	return nil
}

func (h *Handler) invoke(rc *Context, input any) (output any, err error) {
	spanCtx, span := h.tracer.Start(rc.Context, "Handler.invoke")
	defer span.End()
	defer plainPanic(&err)
	defer try.Recover(&err)

	rc.Context = spanCtx
	output, err = h.fetch(rc, input)
	if err != nil {
		span.RecordError(err)
	}
	return output, err
}

func (h *Handler) encode(ctx context.Context, c codec.Codec, output any) ([]byte, error) {
	_, span := h.tracer.Start(ctx, "Handler.encode", trace.WithAttributes(
		attribute.String("media_type", c.MediaType()),
	))
	defer span.End()

	return c.Marshal(output)
}

// plainPanic replaces a recovered [try.PanicError] whose value is not an
// error with a plain error, since unwrapping such a PanicError panics.
func plainPanic(err *error) {
	if plain, ok := withoutPanicValue(*err); ok {
		*err = plain
	}
}

func withoutPanicValue(err error) (error, bool) {
	switch e := err.(type) {
	case try.PanicError:
		if _, ok := e.Value.(error); ok {
			return err, false
		}
		return errors.New(e.Error()), true
	case interface{ Unwrap() []error }:
		errs := slices.Clone(e.Unwrap())
		changed := false
		for i := range errs {
			plain, ok := withoutPanicValue(errs[i])
			if ok {
				errs[i] = plain
				changed = true
			}
		}
		if !changed {
			return err, false
		}
		return errors.Join(errs...), true
	default:
		return err, false
	}
}

type unclassifiedBody struct {
	Cause  any `json:"cause"`
	Status int `json:"status"`
}

// writeFailure renders an error returned by the business function.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, err error, exposeCauses bool) {
	if e, ok := AsError(err); ok {
		e.WriteHttpResponse(ctx, w)
		return
	}

	traceID := apierr.NewTraceID()
	h.log.ErrorContext(
		ctx,
		"business function failed",
		slog.String("trace_id", traceID),
		slog.Any("error", err),
	)

	if e, ok := err.(*apierr.Error); ok {
		apierr.Write(ctx, w, e, traceID, exposeCauses)
		return
	}

	body := unclassifiedBody{Status: http.StatusInternalServerError}
	if exposeCauses {
		body.Cause = err.Error()
	}
	b, _ := sonic.ConfigStd.Marshal(body)

	w.Header().Set("Content-Type", codec.MediaTypeJSON)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(b)
}
