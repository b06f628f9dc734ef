package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo2sent_pages_fetched_total",
		Help: "Total number of event pages fetched from the Octopus API.",
	})

	EventsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo2sent_events_fetched_total",
		Help: "Total number of events fetched from the Octopus API.",
	})

	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo2sent_events_ingested_total",
		Help: "Total number of log entries accepted by the ingestion endpoint.",
	})

	IngestionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octo2sent_ingestion_failures_total",
		Help: "Total number of failed upload calls, labelled by error kind.",
	}, []string{"kind"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octo2sent_runs_total",
		Help: "Total number of invocations, labelled by outcome.",
	}, []string{"outcome"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octo2sent_run_duration_seconds",
		Help:    "End-to-end invocation latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

// Run outcomes.
const (
	OutcomeIngested     = "ingested"
	OutcomeEmpty        = "empty"
	OutcomeFetchFailed  = "fetch_failed"
	OutcomeIngestFailed = "ingest_failed"
)
