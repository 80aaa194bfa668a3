// Package monitoring provides a prometheus-backed MetricsReporter for the
// mapping layer's batch and migration operations.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements prettyorm.MetricsReporter.
type PrometheusMetrics struct {
	batchDuration     *prometheus.HistogramVec
	batchSize         *prometheus.HistogramVec
	batchTotal        *prometheus.CounterVec
	migrationDuration *prometheus.HistogramVec
	columnsAdded      *prometheus.CounterVec
	errorTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewPrometheusMetrics creates a reporter with its own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		registry: registry,

		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prettyorm_batch_duration_seconds",
				Help:    "Duration of batch upsert execution in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"table", "status"},
		),

		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prettyorm_batch_size",
				Help:    "Number of records per batch upsert",
				Buckets: prometheus.ExponentialBuckets(1, 2, 16),
			},
			[]string{"table"},
		),

		batchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettyorm_batch_total",
				Help: "Total number of batch upserts",
			},
			[]string{"table", "status"},
		),

		migrationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prettyorm_migration_duration_seconds",
				Help:    "Duration of table setup and migration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"table", "status"},
		),

		columnsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettyorm_migration_columns_added_total",
				Help: "Total number of columns added by additive migrations",
			},
			[]string{"table"},
		),

		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prettyorm_error_total",
				Help: "Total number of failed operations",
			},
			[]string{"table", "operation"},
		),
	}

	registry.MustRegister(
		pm.batchDuration,
		pm.batchSize,
		pm.batchTotal,
		pm.migrationDuration,
		pm.columnsAdded,
		pm.errorTotal,
	)

	return pm
}

// ReportBatch records one batch upsert outcome.
func (pm *PrometheusMetrics) ReportBatch(table string, size int, elapsed time.Duration, err error) {
	status := statusOf(err)
	pm.batchDuration.WithLabelValues(table, status).Observe(elapsed.Seconds())
	pm.batchSize.WithLabelValues(table).Observe(float64(size))
	pm.batchTotal.WithLabelValues(table, status).Inc()
	if err != nil {
		pm.errorTotal.WithLabelValues(table, "batch").Inc()
	}
}

// ReportMigration records one table setup outcome.
func (pm *PrometheusMetrics) ReportMigration(table string, columnsAdded int, elapsed time.Duration, err error) {
	status := statusOf(err)
	pm.migrationDuration.WithLabelValues(table, status).Observe(elapsed.Seconds())
	if columnsAdded > 0 {
		pm.columnsAdded.WithLabelValues(table).Add(float64(columnsAdded))
	}
	if err != nil {
		pm.errorTotal.WithLabelValues(table, "migration").Inc()
	}
}

// Registry exposes the reporter's registry for callers that aggregate
// metrics themselves.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// Handler returns an HTTP handler serving the reporter's metrics.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
