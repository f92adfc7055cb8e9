// Package metrics exposes ledger and aggregation counters to Prometheus.
// All collectors live on a private registry so tests can create as many
// instances as they like.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/myrizq/rizq/internal/buildinfo"
)

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	transactions *prometheus.CounterVec
	aggregation  prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	build        *prometheus.GaugeVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rizq",
			Name:      "commands_total",
			Help:      "Ledger commands by kind and outcome.",
		}, []string{"command", "outcome"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rizq",
			Name:      "transactions_total",
			Help:      "Recorded transactions by type.",
		}, []string{"type"}),
		aggregation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rizq",
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent computing dashboard summaries.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rizq",
			Name:      "summary_cache_lookups_total",
			Help:      "Summary cache lookups by result.",
		}, []string{"result"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rizq",
			Name:      "alerts_total",
			Help:      "Published alerts by kind.",
		}, []string{"kind"}),
		build: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rizq",
			Name:      "build_info",
			Help:      "Always 1; labelled with the running build.",
		}, []string{"version", "commit"}),
	}
	info := buildinfo.Get()
	m.build.WithLabelValues(info.Version, info.Commit).Set(1)
	m.registry.MustRegister(
		m.commands, m.transactions, m.aggregation, m.cacheLookups, m.alerts, m.build,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Command counts one ledger command. outcome is "ok" or an error class.
func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// Transaction counts one recorded transaction.
func (m *Metrics) Transaction(txnType string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(txnType).Inc()
}

// Aggregation observes how long a summary took.
func (m *Metrics) Aggregation(d time.Duration) {
	if m == nil {
		return
	}
	m.aggregation.Observe(d.Seconds())
}

// CacheLookup counts a summary cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Alert counts one published alert.
func (m *Metrics) Alert(kind string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
