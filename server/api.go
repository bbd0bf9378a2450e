// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"log/slog"
	"net/http"

	"github.com/z5labs/typedapi"
	"github.com/z5labs/typedapi/health"
	"github.com/z5labs/typedapi/route"
	"github.com/z5labs/typedapi/router"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
)

// DefaultBasePath is the path endpoints are mounted under.
const DefaultBasePath = "/api"

// ApiOptions holds configuration values used when constructing an [Api].
type ApiOptions struct {
	mux          *chi.Mux
	def          *openapi3.Spec
	basePath     string
	errHandler   route.ErrorHandler
	routeErrors  route.ErrorHandler
	exposeCauses bool
	readiness    http.Handler
	liveness     http.Handler
	metrics      *metrics
	mounts       []mount
}

// ApiOption is an interface for configuring an [Api].
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(ao *ApiOptions) {
	f(ao)
}

// BasePath sets the path endpoints are mounted under. An empty path mounts
// endpoints at the root.
func BasePath(p string) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.basePath = p
	})
}

// OnError configures the [route.ErrorHandler] used for failures raised
// while dispatching to a route, e.g. a panicking [route.Endpoint]. Mounted
// routes use it for their pipeline failures unless they were built with
// their own [route.OnError].
func OnError(eh route.ErrorHandler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.errHandler = eh
	})
}

// ExposeCauses includes error causes in the error responses of the Api and
// every mounted route. Causes may carry request data and library internals
// so this should only be enabled for trusted clients.
func ExposeCauses() ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.exposeCauses = true
	})
}

// Readiness configures a custom readiness probe endpoint at GET /health/readiness.
func Readiness(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.readiness = h
	})
}

// ReadinessMonitor serves the state of m at GET /health/readiness.
func ReadinessMonitor(m health.Monitor) ApiOption {
	return Readiness(health.Handler(m))
}

// Liveness configures a custom liveness probe endpoint at GET /health/liveness.
func Liveness(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.liveness = h
	})
}

// NotFound configures a custom handler for requests that don't match any registered routes.
func NotFound(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.NotFound(h.ServeHTTP)
	})
}

// MethodNotAllowed configures a custom handler for requests to valid routes
// with unsupported HTTP methods.
func MethodNotAllowed(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.MethodNotAllowed(h.ServeHTTP)
	})
}

// Api is an [http.Handler] hosting typedapi routes.
type Api struct {
	router   *chi.Mux
	spec     *openapi3.Spec
	manifest router.Manifest
	typeErr  error
}

// NewApi creates a new [Api] with the specified title and version.
//
// The title and version are included in the OpenAPI specification served
// at /openapi.json. NewApi panics if two mounted modules export the same
// verb for the same endpoint.
func NewApi(title, version string, opts ...ApiOption) *Api {
	log := typedapi.Logger("github.com/z5labs/typedapi/server")

	ao := &ApiOptions{
		mux: chi.NewMux(),
		def: &openapi3.Spec{
			Openapi: "3.0.3",
			Info: openapi3.Info{
				Title:   title,
				Version: version,
			},
		},
		basePath:  DefaultBasePath,
		readiness: health.Handler(health.All()),
		liveness:  health.Handler(health.All()),
	}
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}
	ao.routeErrors = ao.errHandler
	if ao.errHandler == nil {
		ao.errHandler = route.DefaultErrorHandler(
			typedapi.LogHandler("github.com/z5labs/typedapi/server"),
			ao.exposeCauses,
		)
	}

	api := &Api{
		router: ao.mux,
		spec:   ao.def,
	}
	for _, m := range ao.mounts {
		spec, err := ao.mount(m)
		if err != nil && api.typeErr == nil {
			api.typeErr = err
		}
		api.manifest.Endpoints = append(api.manifest.Endpoints, spec)
	}

	_, err := router.Build(api.manifest)
	if err != nil {
		panic(err)
	}

	ao.mux.Method(http.MethodGet, "/health/readiness", ao.readiness)
	ao.mux.Method(http.MethodGet, "/health/liveness", ao.liveness)
	if ao.metrics != nil {
		ao.mux.Method(http.MethodGet, "/metrics", ao.metrics.handler)
	}

	ao.mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		b, err := sonic.Marshal(ao.def)
		if err != nil {
			log.ErrorContext(
				r.Context(),
				"failed to encode openapi schema to json",
				slog.Any("error", err),
			)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	return api
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(w, req)
}

// Spec returns the OpenAPI specification of the mounted routes.
func (api *Api) Spec() *openapi3.Spec {
	return api.spec
}

// Manifest describes the mounted routes for client generation. It fails
// if an input or output type cannot be referenced from another package.
func (api *Api) Manifest() (router.Manifest, error) {
	return api.manifest, api.typeErr
}
