// Package metrics exposes conversion counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/narrtl/internal/model"
)

const namespace = "narrtl"

// Metrics holds the pipeline collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	narratives   *prometheus.CounterVec
	sentences    *prometheus.CounterVec
	clauses      prometheus.Counter
	fragments    prometheus.Counter
	degradations *prometheus.CounterVec
	duration     prometheus.Histogram
}

// New registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		narratives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narratives_total",
			Help:      "Narratives processed, by result.",
		}, []string{"result"}),
		sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "Sentences processed, by outcome.",
		}, []string{"outcome"}),
		clauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clauses_total",
			Help:      "Clauses produced by decomposition.",
		}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Turtle fragments emitted.",
		}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Recoverable conversion problems, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrative_duration_seconds",
			Help:      "Time to convert one narrative.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.narratives, m.sentences, m.clauses, m.fragments, m.degradations, m.duration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveReport records a converted narrative
func (m *Metrics) ObserveReport(r *model.Report, elapsed time.Duration) {
	if m == nil || r == nil {
		return
	}
	s := r.Stats
	m.narratives.WithLabelValues("ok").Inc()
	m.sentences.WithLabelValues("converted").Add(float64(s.Sentences - s.Skipped))
	m.sentences.WithLabelValues("skipped").Add(float64(s.Skipped))
	m.clauses.Add(float64(s.Clauses))
	m.fragments.Add(float64(s.Fragments))
	m.degradations.WithLabelValues("empty_frame").Add(float64(s.EmptyFrames))
	m.degradations.WithLabelValues("dropped_statement").Add(float64(s.Dropped))
	m.degradations.WithLabelValues("unknown_class").Add(float64(s.UnknownClasses))
	m.degradations.WithLabelValues("invalid_fragment").Add(float64(s.Invalid))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a narrative that could not be converted
func (m *Metrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.narratives.WithLabelValues("error").Inc()
}

// Handler serves the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
