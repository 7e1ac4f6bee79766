package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event pipeline metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_events_total",
			Help: "Total number of events processed, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadpipe_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	LedgerReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadpipe_ledger_replays_total",
			Help: "Total number of redeliveries short-circuited by the ledger",
		},
	)

	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_validation_errors_total",
			Help: "Total number of payloads rejected by the schema validator",
		},
		[]string{"source"},
	)

	DedupRaceRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadpipe_dedup_race_retries_total",
			Help: "Total number of lost dedup races retried as merges",
		},
	)

	// Batch metrics
	BatchRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_batch_rows_total",
			Help: "Total number of batch rows processed, by outcome",
		},
		[]string{"outcome"},
	)

	// Notification metrics
	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadpipe_notification_failures_total",
			Help: "Total number of failed lead notification dispatches",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"source"},
	)
)
