package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spyfly"

// Recorder holds the scan metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	Scans              *prometheus.CounterVec
	ScanDuration       *prometheus.HistogramVec
	ActiveScans        prometheus.Gauge
	CandidatesBuilt    prometheus.Counter
	CandidatesRejected *prometheus.CounterVec
	Recommendations    prometheus.Gauge
	SentimentCache     *prometheus.CounterVec
	SentimentScore     prometheus.Gauge
	VIXFallbacks       prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Completed scans by final state",
			},
			[]string{"state"},
		),

		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Scan duration in seconds by final state",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"state"},
		),

		ActiveScans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_scans",
			Help:      "Scans currently in progress",
		}),

		CandidatesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_built_total",
			Help:      "Spread candidates generated from processed chains",
		}),

		CandidatesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_rejected_total",
				Help:      "Spread candidates dropped during scoring by reason",
			},
			[]string{"reason"},
		),

		Recommendations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommendations",
			Help:      "Recommendations returned by the last scan",
		}),

		SentimentCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentiment_cache_total",
				Help:      "Sentiment lookups by cache result",
			},
			[]string{"result"},
		),

		SentimentScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sentiment_score",
			Help:      "Composite sentiment score from the last scan (0-100)",
		}),

		VIXFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vix_fallbacks_total",
			Help:      "Scans that used the default VIX",
		}),
	}

	r.registry.MustRegister(
		r.Scans,
		r.ScanDuration,
		r.ActiveScans,
		r.CandidatesBuilt,
		r.CandidatesRejected,
		r.Recommendations,
		r.SentimentCache,
		r.SentimentScore,
		r.VIXFallbacks,
	)
	return r
}

// Registry exposes the underlying registry for handlers and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ScanStarted increments the active gauge and returns a func that records
// the outcome.
func (r *Recorder) ScanStarted() func(state string, recommendations int) {
	if r == nil {
		return func(string, int) {}
	}
	start := time.Now()
	r.ActiveScans.Inc()
	return func(state string, recommendations int) {
		r.ActiveScans.Dec()
		r.Scans.WithLabelValues(state).Inc()
		r.ScanDuration.WithLabelValues(state).Observe(time.Since(start).Seconds())
		r.Recommendations.Set(float64(recommendations))
	}
}

func (r *Recorder) CandidatesGenerated(n int) {
	if r == nil {
		return
	}
	r.CandidatesBuilt.Add(float64(n))
}

func (r *Recorder) CandidateRejected(reason string) {
	if r == nil {
		return
	}
	r.CandidatesRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) SentimentLookup(cached bool, score int) {
	if r == nil {
		return
	}
	result := "miss"
	if cached {
		result = "hit"
	}
	r.SentimentCache.WithLabelValues(result).Inc()
	r.SentimentScore.Set(float64(score))
}

func (r *Recorder) VIXFallbackUsed() {
	if r == nil {
		return
	}
	r.VIXFallbacks.Inc()
}
