// Package metrics exposes nesting runs as Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the dedicated Prometheus registry for the nesting engine.
var Registry = prometheus.NewRegistry()

// Recorder implements engine.Recorder on a set of Prometheus collectors.
type Recorder struct {
	runs        *prometheus.CounterVec
	generations prometheus.Counter
	evaluation  prometheus.Histogram
	bestFitness prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		// runs counts finished Nest calls by outcome
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "hypernest_runs_total", Help: "Nesting runs by outcome."},
			[]string{"outcome"},
		),
		generations: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "hypernest_generations_total", Help: "Generations evolved across all runs."},
		),
		// evaluation records the time to score one population
		evaluation: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hypernest_evaluation_seconds",
				Help:    "Time to evaluate one population in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		bestFitness: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "hypernest_best_fitness", Help: "Best fitness of the most recent generation."},
		),
	}
	reg.MustRegister(r.runs, r.generations, r.evaluation, r.bestFitness)
	return r
}

// ObserveEvaluation records one population evaluation.
func (r *Recorder) ObserveEvaluation(d time.Duration) {
	r.evaluation.Observe(d.Seconds())
}

// ObserveGeneration records a finished generation and its best fitness.
func (r *Recorder) ObserveGeneration(bestFitness float64) {
	r.generations.Inc()
	r.bestFitness.Set(bestFitness)
}

// ObserveRun counts a finished run.
func (r *Recorder) ObserveRun(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

var (
	regOnce  sync.Once
	defaultR *Recorder
)

// Default returns the Recorder registered on Registry, together with the Go
// and process collectors. It is safe to call more than once.
func Default() *Recorder {
	regOnce.Do(func() {
		defaultR = NewRecorder(Registry)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return defaultR
}
