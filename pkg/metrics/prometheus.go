package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	passes        prometheus.Counter
	passDuration  prometheus.Histogram
	passAttempted prometheus.Counter
	passFailed    prometheus.Counter
	fetchesTotal  *prometheus.CounterVec
	publishedMsgs *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	watermark     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		passes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marketcast_passes_total",
				Help: "Total collection passes executed",
			},
		),
		passDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketcast_pass_duration_seconds",
				Help:    "Duration of collection passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		passAttempted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marketcast_pass_instruments_attempted_total",
				Help: "Total instruments attempted across passes",
			},
		),
		passFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marketcast_pass_instrument_failures_total",
				Help: "Total per-instrument failures across passes",
			},
		),
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketcast_fetches_total",
				Help: "Provider fetches by symbol and result",
			},
			[]string{"symbol", "result"},
		),
		publishedMsgs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketcast_records_published_total",
				Help: "OHLCV records handed off to the broadcaster",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		watermark: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketcast_watermark_timestamp_seconds",
				Help: "Unix timestamp of the last observed record per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordPass records one completed collection pass.
func (r *Recorder) RecordPass(duration time.Duration, attempted, failed int) {
	r.passes.Inc()
	r.passDuration.Observe(duration.Seconds())
	r.passAttempted.Add(float64(attempted))
	r.passFailed.Add(float64(failed))
}

// RecordFetch records a fetch attempt outcome for a symbol.
func (r *Recorder) RecordFetch(symbol, result string) {
	r.fetchesTotal.WithLabelValues(symbol, result).Inc()
}

// RecordPublished records a record handed off to the broadcaster.
func (r *Recorder) RecordPublished(symbol string) {
	r.publishedMsgs.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordWatermark records the advanced watermark for a symbol.
func (r *Recorder) RecordWatermark(symbol string, ts time.Time) {
	r.watermark.WithLabelValues(symbol).Set(float64(ts.Unix()))
}
