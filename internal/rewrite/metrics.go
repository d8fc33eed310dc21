package rewrite

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for generation metrics.
const (
	outcomeOK         = "ok"
	outcomeValidation = "validation_error"
	outcomeEngine     = "engine_error"
	outcomeBusy       = "busy"
	outcomeCanceled   = "canceled"
)

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formalizer",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Total generation requests by outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "formalizer",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of generation requests in seconds, admission wait included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	engineInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "formalizer",
			Subsystem: "engine",
			Name:      "inflight_calls",
			Help:      "Engine calls currently running",
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, generationDuration, engineInflight)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsValidation(err):
		return outcomeValidation
	case IsBusy(err):
		return outcomeBusy
	case errors.Is(err, context.Canceled):
		// The caller went away; not an engine fault.
		return outcomeCanceled
	default:
		return outcomeEngine
	}
}

func observe(err error, d time.Duration) {
	o := outcomeOf(err)
	generationsTotal.WithLabelValues(o).Inc()
	generationDuration.WithLabelValues(o).Observe(d.Seconds())
}
