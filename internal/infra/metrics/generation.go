package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(pagesGeneratedTotal, imageGenLatencyMs, runsTotal, runInProgress)
}

var (
	pagesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coloring_pages_generated_total",
			Help: "Generation calls per provider, labeled by outcome (ready/failed).",
		},
		[]string{"provider", "status"},
	)

	imageGenLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_generation_latency_ms",
			Help:    "Provider image generation latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 80000},
		},
		[]string{"provider", "success"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_total",
			Help: "Generation runs by kind (batch/regenerate) and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	runInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_run_in_progress",
			Help: "1 while a generation run is active.",
		},
	)
)

func ObservePageGeneration(provider string, latency time.Duration, success bool) {
	status := "ready"
	if !success {
		status = "failed"
	}
	pagesGeneratedTotal.WithLabelValues(norm(provider), status).Inc()
	imageGenLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latency / time.Millisecond))
}

// IncRun records a finished run; outcome is "completed", "partial" or "failed".
func IncRun(kind, outcome string) {
	runsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func SetRunInProgress(running bool) {
	if running {
		runInProgress.Set(1)
		return
	}
	runInProgress.Set(0)
}
