// Package prometheus records pipeline metrics with the Prometheus client
// and exports them in the text exposition format.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/cpbrules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cpbrules"

// resultOK labels successful operations; failures are labeled with their
// error code.
const resultOK = "ok"

// Metrics holds the collectors for one process. Each Metrics has its own
// registry so tests and batch runs do not share state.
type Metrics struct {
	registry *prometheus.Registry

	runs               *prometheus.CounterVec
	runDuration        prometheus.Histogram
	completions        *prometheus.CounterVec
	completionDuration prometheus.Histogram
	responseBytes      prometheus.Histogram
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Policy extraction runs by result and final stage.",
		}, []string{"result", "stage"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time taken by a policy extraction run.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Language model completions by result.",
		}, []string{"result"}),
		completionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Time taken by a language model completion.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		responseBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_response_bytes",
			Help:      "Size of language model responses.",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10),
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values to path in the text
// exposition format, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// InstrumentRunner returns a Runner that records run outcomes.
func (m *Metrics) InstrumentRunner(next cpbrules.Runner) *Runner {
	return &Runner{next: next, metrics: m}
}

// InstrumentCompleter returns a Completer that records completion outcomes.
func (m *Metrics) InstrumentCompleter(next cpbrules.Completer) *Completer {
	return &Completer{next: next, metrics: m}
}

// Ensure Runner implements cpbrules.Runner at compile time.
var _ cpbrules.Runner = (*Runner)(nil)

// Runner records run counts and durations.
type Runner struct {
	next    cpbrules.Runner
	metrics *Metrics
}

// Run delegates to the wrapped runner.
func (r *Runner) Run(ctx context.Context, req *cpbrules.PolicyRequest) (g *cpbrules.Guideline, err error) {
	defer func(begin time.Time) {
		r.metrics.runDuration.Observe(time.Since(begin).Seconds())
		result, stage := resultOK, string(cpbrules.StageDone)
		if err != nil {
			result = cpbrules.ErrorCode(err)
			stage = string(cpbrules.ErrorStage(err))
		}
		r.metrics.runs.WithLabelValues(result, stage).Inc()
	}(time.Now())
	return r.next.Run(ctx, req)
}

// Ensure Completer implements cpbrules.Completer at compile time.
var _ cpbrules.Completer = (*Completer)(nil)

// Completer records completion counts, durations and response sizes.
type Completer struct {
	next    cpbrules.Completer
	metrics *Metrics
}

// Complete delegates to the wrapped completer.
func (c *Completer) Complete(ctx context.Context, req *cpbrules.CompletionRequest) (out string, err error) {
	defer func(begin time.Time) {
		c.metrics.completionDuration.Observe(time.Since(begin).Seconds())
		result := resultOK
		if err != nil {
			result = cpbrules.ErrorCode(err)
		} else {
			c.metrics.responseBytes.Observe(float64(len(out)))
		}
		c.metrics.completions.WithLabelValues(result).Inc()
	}(time.Now())
	return c.next.Complete(ctx, req)
}
