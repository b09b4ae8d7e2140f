// Package metrics provides Prometheus metrics for waveform normalization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the collectors exported on /metrics.
type Metrics struct {
	normalizations *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	inFlight       prometheus.Gauge
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		normalizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecgviewer_normalizations_total",
				Help: "Waveform normalizations by format and outcome",
			},
			[]string{"format", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecgviewer_normalization_duration_seconds",
				Help:    "Time spent loading and normalizing a waveform",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"format"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecgviewer_normalization_cache_hits_total",
			Help: "Normalized waveforms served from cache",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecgviewer_normalizations_in_flight",
			Help: "Normalizations currently running",
		}),
	}

	for _, c := range []prometheus.Collector{m.normalizations, m.duration, m.cacheHits, m.inFlight} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveNormalization records one finished normalization.
func (m *Metrics) ObserveNormalization(format, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.normalizations.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// CacheHit counts a cached response.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// Started and Finished track in-flight work.
func (m *Metrics) Started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) Finished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
