// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/z5labs/typedapi/route"
	"github.com/z5labs/typedapi/router"

	"github.com/go-chi/chi/v5"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type mount struct {
	endpoint router.Endpoint
	module   route.Module
}

// Mount serves the handlers of module at the endpoint identified by id,
// e.g. "users/[id]". The [router.All] verb serves every HTTP method which
// has no handler of its own.
//
// Mount panics if id is not a valid endpoint identifier or module exports
// an invalid verb.
func Mount(id string, module route.Module) ApiOption {
	e := router.MustParseEndpoint(id)
	err := module.Validate()
	if err != nil {
		panic(err)
	}

	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mounts = append(ao.mounts, mount{
			endpoint: e,
			module:   module,
		})
	})
}

func (ao *ApiOptions) mount(m mount) (router.EndpointSpec, error) {
	spec := router.EndpointSpec{
		Endpoint: m.endpoint.String(),
	}
	pattern := chiPattern(ao.basePath, m.endpoint)
	docPath := openapiPath(ao.basePath, m.endpoint)

	var typeErr error
	for _, verb := range m.module.Verbs() {
		ep := m.module[verb]
		desc := ep.Describe()

		vs, err := verbSpec(verb, desc)
		if err != nil && typeErr == nil {
			typeErr = err
		}
		spec.Verbs = append(spec.Verbs, vs)

		methods := []string{verb}
		if verb == router.All {
			methods = slices.DeleteFunc(slices.Clone(documentedMethods), func(method string) bool {
				_, exported := m.module[method]
				return exported
			})
		}
		for _, method := range methods {
			err := ao.document(method, docPath, m.endpoint, desc)
			if err != nil {
				panic(err)
			}
		}

		var h http.Handler = &mountHandler{
			tracer:       otel.Tracer("github.com/z5labs/typedapi/server"),
			errHandler:   ao.errHandler,
			routeErrors:  ao.routeErrors,
			exposeCauses: ao.exposeCauses,
			endpoint:     m.endpoint,
			inner:        ep,
		}
		if ao.metrics != nil {
			h = ao.metrics.instrument("/"+m.endpoint.String(), h)
		}
		h = otelhttp.WithRouteTag(pattern, h)

		if verb == router.All {
			ao.mux.Handle(pattern, h)
			continue
		}
		ao.mux.Method(verb, pattern, h)
	}
	return spec, typeErr
}

func verbSpec(verb string, d route.Description) (router.VerbSpec, error) {
	vs := router.VerbSpec{
		Verb:    verb,
		NoInput: d.NoInput,
	}
	for _, h := range d.Headers {
		vs.Headers = append(vs.Headers, h.Name)
	}

	var err error
	if !d.NoInput {
		vs.Input, err = router.TypeOf(d.InputType)
		if err != nil {
			return vs, err
		}
	}
	vs.Output, err = router.TypeOf(d.OutputType)
	return vs, err
}

func chiPattern(basePath string, e router.Endpoint) string {
	parts := []string{strings.Trim(basePath, "/")}
	for _, seg := range e.Segments {
		switch seg.Kind {
		case router.Param:
			parts = append(parts, "{"+seg.Name+"}")
		case router.CatchAll:
			parts = append(parts, "*")
		default:
			parts = append(parts, seg.Name)
		}
	}
	return cleanPath(parts)
}

func openapiPath(basePath string, e router.Endpoint) string {
	parts := []string{strings.Trim(basePath, "/")}
	for _, seg := range e.Segments {
		if seg.Kind == router.Static {
			parts = append(parts, seg.Name)
			continue
		}
		parts = append(parts, "{"+seg.Name+"}")
	}
	return cleanPath(parts)
}

func cleanPath(parts []string) string {
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return "/" + strings.Join(nonEmpty, "/")
}

type mountHandler struct {
	tracer       trace.Tracer
	errHandler   route.ErrorHandler
	routeErrors  route.ErrorHandler
	exposeCauses bool
	endpoint     router.Endpoint
	inner        http.Handler
}

// ServeHTTP exposes the path parameters and error handling of the Api to
// the inner handler and recovers its panics.
func (m *mountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spanCtx, span := m.tracer.Start(r.Context(), "mountHandler.ServeHTTP")
	defer span.End()

	var err error
	defer func() {
		if err == nil {
			return
		}

		m.errHandler.OnError(spanCtx, w, err)
	}()
	defer try.Recover(&err)

	params := make(map[string]string)
	for _, seg := range m.endpoint.Segments {
		switch seg.Kind {
		case router.Param:
			params[seg.Name] = unescape(chi.URLParam(r, seg.Name))
		case router.CatchAll:
			params[seg.Name] = unescape(chi.URLParam(r, "*"))
		}
	}

	ctx := route.WithParams(spanCtx, params)
	ctx = route.WithErrorHandling(ctx, m.routeErrors, m.exposeCauses)
	m.inner.ServeHTTP(w, r.WithContext(ctx))
}

// unescape decodes a parameter matched against the escaped request path.
func unescape(s string) string {
	u, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return u
}
