// Package metrics exposes sync run counters in the Prometheus text format.
//
// mirrorsync runs as a batch job, so metrics are written to a textfile
// for the node exporter's textfile collector instead of being served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/mirrorsync/internal/model"
)

const (
	// Namespace is the namespace for all metrics.
	Namespace = "mirrorsync"

	// Subsystem is the subsystem for sync metrics.
	Subsystem = "sync"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	EntriesTotal     *prometheus.CounterVec
	AttemptsTotal    prometheus.Counter
	FetchesTotal     *prometheus.CounterVec
	EntryDuration    *prometheus.HistogramVec
	DomainsTracked   *prometheus.GaugeVec
	LastRunTimestamp prometheus.Gauge
}

// New creates and registers every collector on reg. A nil reg gets a
// fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "entries_total",
				Help:      "Entries processed, by outcome and network",
			},
			[]string{"outcome", "network"},
		),
		AttemptsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "attempts_total",
				Help:      "Pipeline attempts including retries",
			},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "fetches_total",
				Help:      "Upstream source reads, by whether they hit the run cache",
			},
			[]string{"source"},
		),
		EntryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "entry_duration_seconds",
				Help:      "Duration of one entry update including retries",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"network"},
		),
		DomainsTracked: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "domains",
				Help:      "Domains in the latest list of an entry",
			},
			[]string{"entry"},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult records the outcome of one entry.
func (m *Metrics) ObserveResult(r model.SyncResult) {
	network := string(r.Network)
	m.EntriesTotal.WithLabelValues(r.Outcome(), network).Inc()
	m.AttemptsTotal.Add(float64(r.Attempts))
	m.EntryDuration.WithLabelValues(network).Observe(r.Duration.Seconds())
	if !r.Failed() {
		m.DomainsTracked.WithLabelValues(r.EntryID).Set(float64(r.Domains))
	}
}

// ObserveFetch records one source read.
func (m *Metrics) ObserveFetch(_ string, cached bool) {
	source := "network"
	if cached {
		source = "cache"
	}
	m.FetchesTotal.WithLabelValues(source).Inc()
}

// MarkRunFinished stamps the end of a run.
func (m *Metrics) MarkRunFinished(t time.Time) {
	m.LastRunTimestamp.Set(float64(t.Unix()))
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
