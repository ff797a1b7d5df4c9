// Package prometheus provides metrics decorators for clearline services.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/clearline"
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels successful operations. Failures are labelled with
// their clearline error code.
const OutcomeOK = "ok"

// Metrics holds the collectors shared by the decorators.
type Metrics struct {
	Diagnoses        *prometheus.CounterVec
	DiagnoseDuration prometheus.Histogram
	Completions      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clearline_diagnoses_total",
			Help: "Product page diagnoses by outcome.",
		}, []string{"outcome"}),
		DiagnoseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clearline_diagnose_duration_seconds",
			Help:    "Time spent diagnosing a product page.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clearline_completions_total",
			Help: "LLM completion calls by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Diagnoses, m.DiagnoseDuration, m.Completions)
	return m
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return clearline.ErrorCode(err)
}

// Ensure InstrumentedDiagnoser implements clearline.Diagnoser.
var _ clearline.Diagnoser = (*InstrumentedDiagnoser)(nil)

// InstrumentedDiagnoser counts and times diagnoses.
type InstrumentedDiagnoser struct {
	next    clearline.Diagnoser
	metrics *Metrics
}

// NewInstrumentedDiagnoser creates a new InstrumentedDiagnoser.
func NewInstrumentedDiagnoser(next clearline.Diagnoser, metrics *Metrics) *InstrumentedDiagnoser {
	return &InstrumentedDiagnoser{next: next, metrics: metrics}
}

// Diagnose delegates to the wrapped diagnoser.
func (d *InstrumentedDiagnoser) Diagnose(ctx context.Context, url string) (*clearline.Diagnosis, error) {
	begin := time.Now()
	diag, err := d.next.Diagnose(ctx, url)
	d.metrics.DiagnoseDuration.Observe(time.Since(begin).Seconds())
	d.metrics.Diagnoses.WithLabelValues(outcome(err)).Inc()
	return diag, err
}

// Ensure InstrumentedCompleter implements clearline.Completer.
var _ clearline.Completer = (*InstrumentedCompleter)(nil)

// InstrumentedCompleter counts completion calls.
type InstrumentedCompleter struct {
	next    clearline.Completer
	metrics *Metrics
}

// NewInstrumentedCompleter creates a new InstrumentedCompleter.
func NewInstrumentedCompleter(next clearline.Completer, metrics *Metrics) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next, metrics: metrics}
}

// Complete delegates to the wrapped completer.
func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	out, err := c.next.Complete(ctx, prompt, temperature)
	c.metrics.Completions.WithLabelValues(outcome(err)).Inc()
	return out, err
}
