package relationships

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "relationships",
			Name:      "transitions_total",
			Help:      "Relationship transitions by outcome",
		},
		[]string{"transition", "result"},
	)

	transitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "relationships",
			Name:      "transition_duration_seconds",
			Help:      "Latency of relationship transitions including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transition"},
	)

	transitionRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "relationships",
			Name:      "transition_retries_total",
			Help:      "Transaction attempts retried after a transient store failure",
		},
		[]string{"transition"},
	)
)

// resultLabel buckets an error into a low-cardinality metric label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyBlocked):
		return "blocked"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, ErrTransientStore):
		return "transient"
	default:
		return "error"
	}
}
