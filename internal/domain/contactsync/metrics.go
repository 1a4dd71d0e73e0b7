package contactsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialgraph",
			Subsystem: "contact_sync",
			Name:      "jobs_total",
			Help:      "Contact sync jobs by outcome",
		},
		[]string{"result"},
	)

	ingestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "socialgraph",
			Subsystem: "contact_sync",
			Name:      "ingest_duration_seconds",
			Help:      "Time to write one contact list into the graph",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
