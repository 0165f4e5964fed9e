package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperweather_ingest_records_stored_total",
		Help: "Total number of canonical forecast records upserted.",
	}, []string{"location"})
	ItemsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperweather_ingest_items_rejected_total",
		Help: "Total number of provider instants that could not be normalized.",
	}, []string{"location"})
	LocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperweather_location_failures_total",
		Help: "Total number of per-location failures, by pass.",
	}, []string{"pass", "location"})
	ReportsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyperweather_reports_created_total",
		Help: "Total number of daily reports generated and stored.",
	})
	ReportsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyperweather_reports_skipped_total",
		Help: "Total number of report generations skipped because a report existed.",
	})
	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hyperweather_pass_duration_seconds",
		Help:    "Duration of a full ingestion or report pass.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"pass"})
)

const (
	PassIngest = "ingest"
	PassReport = "report"
)
