package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/tasktrack/internal/metrics"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.RecordsSkipped.WithLabelValues("tasks").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("tasks")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.StoreWrites.WithLabelValues("save_all", "failure")), 0)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.ReportsGenerated.Inc()

	path := filepath.Join(t.TempDir(), "tasktrack.prom")
	require.NoError(t, metrics.WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tasktrack_reports_generated_total 1")
}
