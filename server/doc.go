// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server hosts typedapi routes.
//
// An [Api] maps endpoint identifiers onto a chi router under a base path,
// `/api` by default. A `[name]` segment becomes a path parameter and a
// trailing `[...name]` segment matches the rest of the path. Both are made
// available to routes through [route.Context.Param].
//
//	api := server.NewApi(
//	    "Users",
//	    "v1.0.0",
//	    server.Mount("users/[id]", route.Module{
//	        http.MethodGet: getUser,
//	        http.MethodDelete: deleteUser,
//	    }),
//	)
//
//	srv := server.NewServer(
//	    server.TCPListener(server.AddrFromEnv()),
//	    server.TimeoutsFromEnv(),
//	)
//	err := srv.Serve(ctx, api)
//
// Every Api serves an OpenAPI document at GET /openapi.json and liveness and
// readiness probes under /health. [ReadinessMonitor] backs the readiness
// probe with a [health.Monitor]. When configured with [Metrics], Prometheus
// metrics are served at GET /metrics.
package server
