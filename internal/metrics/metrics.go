// Package metrics records per-run reporter metrics and exports them as a
// node-exporter textfile.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

// Namespace prefixes every metric name.
const Namespace = "zephyr_bridge"

// Metrics holds the collectors for one run. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	records         *prometheus.CounterVec
	excluded        prometheus.Counter
	publishDuration prometheus.Histogram
	publishFailures prometheus.Counter
}

// New registers the run collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_total",
			Help:      "Test records added to the Zephyr report, by result",
		}, []string{"result"}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_excluded_total",
			Help:      "Tests without a Zephyr case key in their title",
		}),
		publishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent uploading the report to Zephyr Scale",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "publish_failures_total",
			Help:      "Failed report uploads",
		}),
	}
	reg.MustRegister(m.records, m.excluded, m.publishDuration, m.publishFailures)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordAdded counts one record with the given result.
func (m *Metrics) RecordAdded(r status.Result) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(r)).Inc()
}

// TestExcluded counts one test that carried no case key.
func (m *Metrics) TestExcluded() {
	if m == nil {
		return
	}
	m.excluded.Inc()
}

// PublishFinished observes an upload attempt.
func (m *Metrics) PublishFinished(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.publishDuration.Observe(d.Seconds())
	if err != nil {
		m.publishFailures.Inc()
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "writing metrics textfile %s", path)
	}
	return nil
}
