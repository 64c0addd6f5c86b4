package table

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "table_fetch_duration_seconds",
			Help:    "Duration of upstream fetches per table",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"table"},
	)

	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_fetch_failures_total",
			Help: "Total number of failed upstream fetches per table",
		},
		[]string{"table"},
	)

	tableRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "table_records",
			Help: "Records held by a table after its last successful fetch",
		},
		[]string{"table"},
	)
)

// Collectors returns the table metrics for registration with a prometheus registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{fetchDuration, fetchFailures, tableRecords}
}
