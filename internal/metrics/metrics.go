// Package metrics exposes Prometheus instrumentation for the ledger
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service counters behind its own registry so
// tests can create independent instances.
type Collector struct {
	registry           *prometheus.Registry
	transfersProcessed prometheus.Counter
	transfersFailed    *prometheus.CounterVec
	transferDuration   prometheus.Histogram
	accountsCreated    prometheus.Counter
}

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transfersProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_transfers_processed_total",
			Help: "Total number of committed transfers",
		}),
		transfersFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transfers_failed_total",
			Help: "Total number of rejected transfers by reason",
		}, []string{"reason"}),
		transferDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Time taken to process one transfer request",
			Buckets: prometheus.DefBuckets,
		}),
		accountsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
	}
}

// RecordTransfer records the outcome of one transfer request. reason is
// empty on success.
func (c *Collector) RecordTransfer(duration time.Duration, reason string) {
	c.transferDuration.Observe(duration.Seconds())
	if reason == "" {
		c.transfersProcessed.Inc()
	} else {
		c.transfersFailed.WithLabelValues(reason).Inc()
	}
}

// RecordAccountCreated records one successful account creation.
func (c *Collector) RecordAccountCreated() {
	c.accountsCreated.Inc()
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
