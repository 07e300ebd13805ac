package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ector_extractions_total",
			Help: "Total number of extraction calls by language and outcome",
		},
		[]string{"language", "outcome"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ector_extraction_duration_seconds",
			Help:    "Duration of extraction calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"language"},
	)

	ClausesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ector_clauses_classified_total",
			Help: "Total number of clauses by classification",
		},
		[]string{"kind"},
	)

	AnnotatorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ector_annotator_requests_total",
			Help: "Total number of annotator calls by annotator and status",
		},
		[]string{"annotator", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ector_cache_lookups_total",
			Help: "Total number of result cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ector_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ector_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome labels for ExtractionsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeCached  = "cached"
	OutcomeError   = "error"
)
