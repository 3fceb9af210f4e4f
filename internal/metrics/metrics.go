// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/cost"
)

// Prefix is prepended to every metric name
const Prefix = "dockctl_"

// Metrics holds the service's collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	bulkItems        *prometheus.CounterVec
	bulkItemDuration *prometheus.HistogramVec
	engineFailures   *prometheus.CounterVec
	samplerRuns      *prometheus.CounterVec
	monthlyCost      prometheus.Gauge
	idleContainers   prometheus.Gauge
	idleSavings      prometheus.Gauge
	containers       prometheus.Gauge
}

// New creates the collectors on a fresh registry, together with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		bulkItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "bulk_items_total",
				Help: "Bulk action items by action and outcome",
			},
			[]string{"action", "status"},
		),
		bulkItemDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    Prefix + "bulk_item_duration_seconds",
				Help:    "Time taken by a single bulk action item",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		engineFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "engine_failures_total",
				Help: "Failed Docker daemon calls by operation",
			},
			[]string{"op"},
		),
		samplerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "sampler_runs_total",
				Help: "Usage sampler executions by outcome",
			},
			[]string{"status"},
		),
		monthlyCost: factory.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "estimated_monthly_cost",
			Help: "Projected monthly cost of all sampled containers",
		}),
		idleContainers: factory.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "idle_containers",
			Help: "Number of containers flagged as idle at the last sample",
		}),
		idleSavings: factory.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "idle_potential_monthly_savings",
			Help: "Monthly cost attributable to idle containers",
		}),
		containers: factory.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "sampled_containers",
			Help: "Number of containers included in the last cost report",
		}),
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// BulkObserver returns a dispatcher observer labelled with action
func (m *Metrics) BulkObserver(action string) bulk.Observer {
	return func(result bulk.Result, elapsed time.Duration) {
		m.bulkItems.WithLabelValues(action, string(result.Status)).Inc()
		m.bulkItemDuration.WithLabelValues(action).Observe(elapsed.Seconds())
	}
}

// RecordEngineFailure counts a failed daemon call
func (m *Metrics) RecordEngineFailure(op string) {
	m.engineFailures.WithLabelValues(op).Inc()
}

// RecordSamplerRun counts a sampler execution
func (m *Metrics) RecordSamplerRun(success bool) {
	if success {
		m.samplerRuns.WithLabelValues("success").Inc()
	} else {
		m.samplerRuns.WithLabelValues("failure").Inc()
	}
}

// RecordCostReport publishes the headline figures of a cost report
func (m *Metrics) RecordCostReport(report *cost.Report) {
	m.monthlyCost.Set(report.TotalCost.Monthly)
	m.idleContainers.Set(float64(len(report.IdleContainers)))
	m.idleSavings.Set(report.PotentialSavings.Monthly)
	m.containers.Set(float64(report.ContainerCount))
}
