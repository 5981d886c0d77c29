package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the Prometheus collectors of one Server. Each server owns a
// registry so several can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	rateLimitRejects prometheus.Counter
	panicRecoveries  prometheus.Counter
	accountAttempts  *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nb_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nb_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nb_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		rateLimitRejects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nb_rate_limit_rejects_total",
				Help: "Total number of requests rejected due to rate limiting",
			},
		),
		panicRecoveries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nb_panic_recoveries_total",
				Help: "Total number of panics recovered in HTTP handlers",
			},
		),
		accountAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nb_account_attempts_total",
				Help: "Registration and login attempts by outcome",
			},
			[]string{"action", "outcome"},
		),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// metricsMiddleware records RED metrics per route pattern, so path
// parameters and query strings do not create new series.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.requestsInFlight.Inc()
		defer s.metrics.requestsInFlight.Dec()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		s.metrics.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
