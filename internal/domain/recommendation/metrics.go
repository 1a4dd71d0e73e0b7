package recommendation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tierSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "recommendation",
			Name:      "tier_candidates",
			Help:      "Candidates produced per tier",
			Buckets:   []float64{0, 1, 5, 10, 15, 30},
		},
		[]string{"tier"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "recommendation",
			Name:      "requests_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"result"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "recommendation",
			Name:      "duration_seconds",
			Help:      "Latency of recommendation requests",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func observeTier(t Tier, n int) {
	tierSize.WithLabelValues(t.String()).Observe(float64(n))
}
