package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the worksheet service. Each
// Metrics owns its registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal      *prometheus.CounterVec
	EventDuration    *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	OpenWorksheets   prometheus.Gauge
	ClampedOverrides prometheus.Counter
	SweptWorksheets  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitsheet",
			Name:      "events_total",
			Help:      "Worksheet events applied, by event type and outcome.",
		}, []string{"type", "outcome"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitsheet",
			Name:      "event_duration_seconds",
			Help:      "Time to apply one event, including recompute.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitsheet",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		OpenWorksheets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitsheet",
			Name:      "worksheets_open",
			Help:      "Worksheets currently held by the store.",
		}),
		ClampedOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitsheet",
			Name:      "overrides_clamped_total",
			Help:      "Override edits reduced to fit the entry amount.",
		}),
		SweptWorksheets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitsheet",
			Name:      "worksheets_swept_total",
			Help:      "Idle worksheets removed by the sweeper.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsTotal,
		m.EventDuration,
		m.HTTPRequests,
		m.OpenWorksheets,
		m.ClampedOverrides,
		m.SweptWorksheets,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeEvent(eventType string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsTotal.WithLabelValues(eventType, outcome).Inc()
	m.EventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
}
