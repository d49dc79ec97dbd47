// Package metrics provides Prometheus metrics for bytereview.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageRequests counts page fetches by outcome (ok, degraded) and records skipped while decoding.
	PageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytereview",
			Name:      "page_requests_total",
			Help:      "Total number of page fetches",
		},
		[]string{"outcome"},
	)

	// Mutations counts field writes by field and result (modified, unchanged, error).
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytereview",
			Name:      "mutations_total",
			Help:      "Total number of single-field writes",
		},
		[]string{"field", "result"},
	)

	// FlowTransitions counts confirmation flow events.
	FlowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytereview",
			Name:      "flow_transitions_total",
			Help:      "Total number of confirmation flow events",
		},
		[]string{"flow", "event", "result"},
	)

	// CategorizeOutcomes counts per-record categorization outcomes.
	CategorizeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytereview",
			Name:      "categorize_outcomes_total",
			Help:      "Total number of categorization outcomes by status",
		},
		[]string{"status"},
	)

	// ModelLatency measures categorization model round trips.
	ModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bytereview",
			Name:      "model_request_duration_seconds",
			Help:      "Duration of categorization model requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)
