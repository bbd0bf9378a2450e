// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	handler  http.Handler
}

// Metrics records a request counter and latency histogram per endpoint in
// reg and serves reg at GET /metrics.
func Metrics(reg *prometheus.Registry) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		factory := promauto.With(reg)

		ao.metrics = &metrics{
			requests: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "typedapi",
					Name:      "requests_total",
					Help:      "Total number of requests processed",
				},
				[]string{"endpoint", "method", "status"},
			),
			duration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "typedapi",
					Name:      "request_duration_seconds",
					Help:      "Request duration in seconds",
					Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"endpoint", "method"},
			),
			handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
	})
}

func (m *metrics) instrument(endpoint string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		h.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(endpoint, r.Method).Observe(time.Since(start).Seconds())
	})
}
