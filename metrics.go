package prettyorm

import "time"

// MetricsReporter observes batch and migration outcomes. Implementations
// must be safe for concurrent use; the `monitoring` package provides a
// prometheus-backed one.
type MetricsReporter interface {
	ReportBatch(table string, size int, elapsed time.Duration, err error)
	ReportMigration(table string, columnsAdded int, elapsed time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) ReportBatch(string, int, time.Duration, error)     {}
func (noopMetrics) ReportMigration(string, int, time.Duration, error) {}
