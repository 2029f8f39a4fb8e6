// Package metrics exposes triage activity to prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type collector struct {
	ProcessedCounter *prometheus.CounterVec
	BlockedCounter   *prometheus.CounterVec
	LookupDuration   *prometheus.HistogramVec
}

type Metrics struct {
	collector *collector
}

// New creates the triage collectors and registers them with reg. Collectors which are already
// registered are reused.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{collector: newMetricCollector(reg)}
}

// Processed counts one process_list step by its result status.
func (m *Metrics) Processed(status string) {
	m.collector.ProcessedCounter.With(prometheus.Labels{"status": status}).Inc()
}

// Blocked counts subnets written to the blocklist by the given method.
func (m *Metrics) Blocked(method string, count int) {
	m.collector.BlockedCounter.With(prometheus.Labels{"method": method}).Add(float64(count))
}

func (m *Metrics) Lookup(started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.collector.LookupDuration.With(prometheus.Labels{"result": result}).Observe(time.Since(started).Seconds())
}

func newMetricCollector(reg prometheus.Registerer) *collector {
	collector := &collector{
		ProcessedCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ipreview_triage_processed_total", Help: "Total triage steps by result status"},
			[]string{"status"}),
		BlockedCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ipreview_blocklist_added_total", Help: "Total subnets appended to the blocklist"},
			[]string{"method"}),
		LookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipreview_lookup_duration_seconds",
				Help:    "Registry lookup latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"}),
	}

	collector.ProcessedCounter = register(reg, collector.ProcessedCounter)
	collector.BlockedCounter = register(reg, collector.BlockedCounter)
	collector.LookupDuration = register(reg, collector.LookupDuration)

	return collector
}

func register[T prometheus.Collector](reg prometheus.Registerer, metric T) T {
	if errRegister := reg.Register(metric); errRegister != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(errRegister, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
				return existing
			}
		}
	}

	return metric
}
