// Package metrics exposes pipeline counters through Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements stockcast.Observer, suggest.CacheObserver and
// predict.StaleObserver.
type Recorder struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	staleTotal    prometheus.Counter
	cacheHits     prometheus.Counter
	lastPredicted *prometheus.GaugeVec
	fitPercentage *prometheus.GaugeVec
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_requests_total",
				Help: "Service requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_request_duration_seconds",
				Help:    "Service request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		staleTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "stockcast_stale_responses_total",
			Help: "Prediction responses discarded because a newer request was issued",
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "stockcast_suggest_cache_hits_total",
			Help: "Suggestion lookups answered from the cache",
		}),
		lastPredicted: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_predicted_price",
				Help: "Final predicted price of the latest forecast per ticker",
			},
			[]string{"ticker"},
		),
		fitPercentage: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_model_fit_percentage",
				Help: "Model fit of the latest forecast per ticker",
			},
			[]string{"ticker"},
		),
	}
}

// ObserveRequest records one completed service request.
func (r *Recorder) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	r.requests.WithLabelValues(endpoint, outcome).Inc()
	r.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// StaleDiscarded counts a discarded prediction response.
func (r *Recorder) StaleDiscarded() { r.staleTotal.Inc() }

// CacheHit counts a cached suggestion lookup.
func (r *Recorder) CacheHit() { r.cacheHits.Inc() }

// RecordForecast sets the per-ticker gauges.
func (r *Recorder) RecordForecast(ticker string, lastPredicted, fit float64) {
	r.lastPredicted.WithLabelValues(ticker).Set(lastPredicted)
	r.fitPercentage.WithLabelValues(ticker).Set(fit)
}
