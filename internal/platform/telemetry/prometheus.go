package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store metric label names.
const (
	LabelOperation = "operation"
	LabelBackend   = "backend"
	LabelResult    = "result"
)

// StoreMetrics holds the Prometheus collectors for repository calls.
type StoreMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewStoreMetrics creates the store collectors and registers them with reg.
// It panics if a collector with the same name is already registered.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	labels := []string{LabelOperation, LabelBackend, LabelResult}

	return &StoreMetrics{
		OperationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_store_operations_total",
				Help: "Total number of todo store operations",
			},
			labels,
		),
		OperationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_store_operation_duration_seconds",
				Help:    "Duration of todo store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			labels,
		),
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the store metrics.
func NewRegistry() (*prometheus.Registry, *StoreMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewStoreMetrics(reg)
}
