// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether an API is ready to serve traffic.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/z5labs/typedapi"
)

// Monitor reports its current state of health.
type Monitor interface {
	Healthy(context.Context) (bool, error)
}

// MonitorFunc is a func which implements the [Monitor] interface.
type MonitorFunc func(context.Context) (bool, error)

// Healthy implements the [Monitor] interface.
func (f MonitorFunc) Healthy(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Binary is a [Monitor] which is either healthy or not. It is safe for
// concurrent use and the zero value is unhealthy.
type Binary struct {
	healthy atomic.Bool
}

// MarkHealthy changes the state to healthy.
func (b *Binary) MarkHealthy() {
	b.healthy.Store(true)
}

// MarkUnhealthy changes the state to unhealthy.
func (b *Binary) MarkUnhealthy() {
	b.healthy.Store(false)
}

// Healthy implements the [Monitor] interface.
func (b *Binary) Healthy(ctx context.Context) (bool, error) {
	return b.healthy.Load(), nil
}

// All is healthy when every monitor is. It stops at the first unhealthy
// monitor or error.
func All(ms ...Monitor) Monitor {
	return MonitorFunc(func(ctx context.Context) (bool, error) {
		for _, m := range ms {
			healthy, err := m.Healthy(ctx)
			if !healthy || err != nil {
				return false, err
			}
		}
		return true, nil
	})
}

// Any is healthy when at least one monitor is. Errors of the other
// monitors are joined and only returned when none is healthy.
func Any(ms ...Monitor) Monitor {
	return MonitorFunc(func(ctx context.Context) (bool, error) {
		var errs []error
		for _, m := range ms {
			healthy, err := m.Healthy(ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if healthy {
				return true, nil
			}
		}
		return false, errors.Join(errs...)
	})
}

// Status is the body written by [Handler].
type Status struct {
	Healthy bool `json:"healthy"`
}

// Handler serves the state of m as a probe: 200 when healthy and 503
// otherwise.
func Handler(m Monitor) http.Handler {
	log := typedapi.Logger("github.com/z5labs/typedapi/health")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		healthy, err := m.Healthy(ctx)
		if err != nil {
			log.WarnContext(ctx, "health check failed", slog.Any("error", err))
			healthy = false
		}

		b, err := sonic.Marshal(Status{Healthy: healthy})
		if err != nil {
			log.ErrorContext(ctx, "failed to marshal health status", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(b)
	})
}
