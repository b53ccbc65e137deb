// Package metrics exposes Prometheus instrumentation for the marketplace
// service. Labels carry operation names and outcomes only, never addresses.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datasov"

type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ledger metrics
	OperationsTotal *prometheus.CounterVec
	SettledVolume   prometheus.Counter
	FeesCollected   prometheus.Counter
	Settlements     *prometheus.CounterVec
}

// New builds the metric set on a fresh registry with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations by name and outcome",
			},
			[]string{"operation", "result"},
		),

		SettledVolume: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "marketplace",
				Name:      "settled_volume_minor_units_total",
				Help:      "Gross purchase volume settled, in minor units",
			},
		),

		FeesCollected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "marketplace",
				Name:      "fees_collected_minor_units_total",
				Help:      "Marketplace fees collected, in minor units",
			},
		),

		Settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "marketplace",
				Name:      "settlements_total",
				Help:      "Settlement records written, by type",
			},
			[]string{"type"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.OperationsTotal,
		m.SettledVolume,
		m.FeesCollected,
		m.Settlements,
	)

	return m
}

// ObserveOperation counts one ledger operation. A nil receiver is a no-op.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveSettlement records a committed settlement.
func (m *Metrics) ObserveSettlement(settlementType string, gross, fee uint64) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(settlementType).Inc()
	m.SettledVolume.Add(float64(gross))
	m.FeesCollected.Add(float64(fee))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
