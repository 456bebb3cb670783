// Package httpmetrics provides prometheus instrumentation for the echo
// servers. Both feelwrited and sentimentd mount the same middleware with
// a service label telling the two apart.
package httpmetrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds request-level instrumentation.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	requestDur     *prometheus.HistogramVec
	activeRequests prometheus.Gauge
}

// New creates HTTP metrics registered on reg under the given service
// label. A nil reg leaves the collectors unregistered, which is what
// tests want.
func New(reg prometheus.Registerer, service string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "feelwrite",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests labeled by method, path and status code.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		requestDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "feelwrite",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds, labeled by method and path.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			ConstLabels: labels,
		}, []string{"method", "path"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "feelwrite",
			Subsystem:   "http",
			Name:        "active_requests",
			Help:        "Number of currently active HTTP requests.",
			ConstLabels: labels,
		}),
	}
}

// ScrapeHandler returns the /metrics handler exposing the collectors
// registered on reg. Registerers that cannot be gathered (including
// nil) fall back to the default registry's handler.
func ScrapeHandler(reg prometheus.Registerer) http.Handler {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Middleware returns echo middleware recording per-request metrics.
func Middleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.activeRequests.Inc()
			start := time.Now()

			err := next(c)

			m.activeRequests.Dec()

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				switch {
				case errors.As(err, &he):
					status = he.Code
				case !c.Response().Committed:
					// The error handler has not run yet, so the
					// response still shows the pre-write status.
					status = http.StatusInternalServerError
				}
			}

			m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.requestDur.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
