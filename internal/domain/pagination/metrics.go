package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "pagination",
			Name:      "page_duration_seconds",
			Help:      "Latency of serving one list page including refills",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"list"},
	)

	rowsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "pagination",
			Name:      "rows_filtered_total",
			Help:      "Rows hidden from a viewer because of a block",
		},
		[]string{"list"},
	)
)
