package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache layers reported in hazard_cache_hits_total.
const (
	LayerRedis    = "redis"
	LayerDatabase = "database"
)

// Analysis durations in seconds; video analysis on CPU can take minutes.
var analysisBuckets = []float64{
	0.25, 0.5, 1, // cached / small images on GPU
	2.5, 5, 10, // images on CPU
	30, 60, 120, 300, // videos
}

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	AnalysisSeconds *prometheus.HistogramVec
	DangerZones     *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	InFlight        prometheus.Gauge
}

// New creates the collectors on a private registry together with process and Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hazard_requests_total",
				Help: "Analyze requests by media type and outcome",
			},
			[]string{"media_type", "status"},
		),
		AnalysisSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hazard_analysis_seconds",
				Help:    "Time spent fetching and analysing media",
				Buckets: analysisBuckets,
			},
			[]string{"media_type"},
		),
		DangerZones: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hazard_danger_zone_total",
				Help: "Analyses by resulting danger zone",
			},
			[]string{"zone"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hazard_cache_hits_total",
				Help: "Analyses answered from a cache layer",
			},
			[]string{"layer"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hazard_analyses_in_flight",
				Help: "Analyses currently running",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(mediaType, status string) {
	m.Requests.WithLabelValues(mediaType, status).Inc()
}

func (m *Metrics) ObserveAnalysis(mediaType string, d time.Duration) {
	m.AnalysisSeconds.WithLabelValues(mediaType).Observe(d.Seconds())
}

func (m *Metrics) ObserveZone(zone string) {
	m.DangerZones.WithLabelValues(zone).Inc()
}

func (m *Metrics) CacheHit(layer string) {
	m.CacheHits.WithLabelValues(layer).Inc()
}
