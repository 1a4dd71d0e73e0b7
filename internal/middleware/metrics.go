package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics recovered",
		},
	)
)

// routePattern returns the matched chi pattern so ids do not explode label
// cardinality. Only valid after the router has served r.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func observeRequest(r *http.Request, status int, seconds float64) {
	route := routePattern(r)
	httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(r.Method, route).Observe(seconds)
}
