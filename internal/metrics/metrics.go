package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms describing what the stores and the report
// generator did during one invocation. It includes counters for loaded and skipped records,
// store writes by operation and outcome, report generations, and a histogram for write duration.
type Metrics struct {
	RecordsLoaded      *prometheus.CounterVec
	RecordsSkipped     *prometheus.CounterVec
	StoreWrites        *prometheus.CounterVec
	StoreWriteDuration *prometheus.HistogramVec
	ReportsGenerated   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with the provided Registerer.
//
// Parameters:
//   - reg: A prometheus.Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RecordsLoaded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tasktrack_records_loaded_total",
			Help: "Total number of records successfully read from a backing file.",
		}, []string{"file"}),
		RecordsSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tasktrack_records_skipped_total",
			Help: "Total number of malformed records skipped while loading a backing file.",
		}, []string{"file"}),
		StoreWrites: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tasktrack_store_writes_total",
			Help: "Total number of writes to a backing file, by operation and outcome.",
		}, []string{"op", "status"}), // op: 'save_all', 'append_one', 'append_user', 'report'
		StoreWriteDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasktrack_store_write_duration_seconds",
			Help:    "Duration of writes to a backing file.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		ReportsGenerated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tasktrack_reports_generated_total",
			Help: "Total number of times the overview reports were regenerated.",
		}),
	}

	metrics.StoreWrites.WithLabelValues("save_all", "success")
	metrics.StoreWrites.WithLabelValues("save_all", "failure")

	return metrics
}

// WriteTextfile dumps everything gathered by g into path using the node exporter textfile
// format, so that a short-lived CLI run can still be scraped.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("could not write metrics to '%s': %w", path, err)
	}
	return nil
}
