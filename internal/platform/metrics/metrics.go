package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the timeline server.
type Metrics struct {
	registry                 *prometheus.Registry
	requestsTotal            prometheus.Counter
	errorsTotal              prometheus.Counter
	sequencesRegisteredTotal prometheus.Counter
	framesEvaluatedTotal     prometheus.Counter
	sequences                prometheus.Gauge
	rangeRenderSeconds       prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		sequencesRegisteredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_sequences_registered_total",
			Help: "Total number of sequences registered or replaced",
		}),
		framesEvaluatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeline_frames_evaluated_total",
			Help: "Total number of snapshots evaluated",
		}),
		sequences: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timeline_sequences",
			Help: "Number of stored sequences",
		}),
		rangeRenderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeline_range_render_seconds",
			Help:    "Time spent rendering a frame range",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.sequencesRegisteredTotal,
		m.framesEvaluatedTotal,
		m.sequences,
		m.rangeRenderSeconds,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSequencesRegistered increments the registered sequences counter.
func (m *Metrics) IncSequencesRegistered() {
	m.sequencesRegisteredTotal.Inc()
}

// AddFramesEvaluated adds n to the evaluated frames counter.
func (m *Metrics) AddFramesEvaluated(n int) {
	m.framesEvaluatedTotal.Add(float64(n))
}

// SetSequences sets the stored sequences gauge.
func (m *Metrics) SetSequences(n int) {
	m.sequences.Set(float64(n))
}

// ObserveRangeRender records how long one range render took.
func (m *Metrics) ObserveRangeRender(d time.Duration) {
	m.rangeRenderSeconds.Observe(d.Seconds())
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
// updateGauges runs before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
