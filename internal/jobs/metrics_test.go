package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("delivery.overdue_scan").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("delivery.overdue_scan").End(boom), boom)
	metrics.SetOverdueItems(7)
	metrics.AddIndexed("indexed", 3)
	metrics.AddIndexed("deleted", 0)

	families, err := registry.Gather()
	require.NoError(t, err)

	job := map[string]string{"job": "delivery.overdue_scan"}
	assert.Equal(t, 1.0, metricValue(t, families, "tms_jobs_total", map[string]string{"job": "delivery.overdue_scan", "status": "success"}))
	assert.Equal(t, 1.0, metricValue(t, families, "tms_jobs_total", map[string]string{"job": "delivery.overdue_scan", "status": "failure"}))
	assert.Equal(t, 1.0, metricValue(t, families, "tms_jobs_failures_total", job))
	assert.Equal(t, 7.0, metricValue(t, families, "tms_delivery_overdue_items", nil))
	assert.Equal(t, 3.0, metricValue(t, families, "tms_search_documents_total", map[string]string{"result": "indexed"}))
	assert.EqualValues(t, 2, histogramCount(t, families, "tms_job_duration_seconds", job))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("noop").End(boom), boom)
	metrics.SetOverdueItems(1)
	metrics.AddIndexed("indexed", 1)
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if !hasLabels(metric, labels) {
				continue
			}
			switch fam.GetType() {
			case dto.MetricType_COUNTER:
				return metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				return metric.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramCount(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) uint64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		want, ok := labels[lp.GetName()]
		if !ok {
			continue
		}
		if lp.GetValue() != want {
			return false
		}
		matched++
	}
	return matched == len(labels)
}
