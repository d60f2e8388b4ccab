package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidecast",
			Name:      "runs_total",
			Help:      "Pipeline runs by result (success, failed, cancelled)",
		},
		[]string{"result"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slidecast",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"stage"},
	)

	slidesEmitted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "slidecast",
			Name:      "slides_emitted",
			Help:      "Slides produced per run",
			Buckets:   prometheus.LinearBuckets(1, 2, 15),
		},
	)

	budgetUnreachable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slidecast",
			Name:      "budget_unreachable_total",
			Help:      "Runs where the requested slide count could not be met exactly",
		},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "slidecast",
			Name:      "queue_depth",
			Help:      "Queue depth gauges for stream and dlq",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(runsTotal, stageDuration, slidesEmitted, budgetUnreachable, queueDepth)
	})
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func IncRun(result string) { runsTotal.WithLabelValues(result).Inc() }

func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func ObserveSlides(n int) { slidesEmitted.Observe(float64(n)) }

func IncBudgetUnreachable() { budgetUnreachable.Inc() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }
