// Package metrics holds the Prometheus metrics for index operations and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all go-db-index metrics
	Namespace = "godb"
	// Subsystem is the subsystem for index metrics
	Subsystem = "index"
)

// Outcome labels
const (
	OutcomeCreated  = "created"
	OutcomeExists   = "exists"
	OutcomeDeleted  = "deleted"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
)

// Metrics holds all Prometheus metrics for the index subsystem.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	IndexOperations *prometheus.CounterVec
	BulkDeleteItems *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with reg (the default registerer if nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		IndexOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "operations_total",
				Help:      "Index lifecycle operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		BulkDeleteItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "bulk_delete_items_total",
				Help:      "Design documents processed by bulk delete by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RecordIndexOp counts one index operation
func (m *Metrics) RecordIndexOp(op, outcome string) {
	if m == nil {
		return
	}
	m.IndexOperations.WithLabelValues(op, outcome).Inc()
}

// RecordBulkDeleteItem counts one bulk delete item
func (m *Metrics) RecordBulkDeleteItem(outcome string) {
	if m == nil {
		return
	}
	m.BulkDeleteItems.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
