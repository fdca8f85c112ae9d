// Package metrics exposes Prometheus counters for TTS generations and the dev proxy.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qwentts"

var (
	// generationsTotal counts generations by engine and outcome (inline, hosted, or an error kind).
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of TTS generations by outcome",
		},
		[]string{"engine", "outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of TTS generations in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"engine"},
	)

	tokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by the TTS API",
		},
		[]string{"type"}, // input, output
	)

	proxyResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_responses_total",
			Help:      "Upstream responses relayed by the development proxy",
		},
		[]string{"code"},
	)

	allMetrics = []prometheus.Collector{
		generationsTotal,
		generationDuration,
		tokensTotal,
		proxyResponsesTotal,
	}
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// Registry returns the process registry with all metrics and Go runtime collectors.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		for _, c := range allMetrics {
			registry.MustRegister(c)
		}
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return registry
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

func RecordGeneration(engine, outcome string, seconds float64) {
	generationsTotal.WithLabelValues(engine, outcome).Inc()
	generationDuration.WithLabelValues(engine).Observe(seconds)
}

func RecordTokens(input, output int) {
	if input > 0 {
		tokensTotal.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		tokensTotal.WithLabelValues("output").Add(float64(output))
	}
}

// RecordProxyResponse counts an upstream status; 0 means the upstream was unreachable.
func RecordProxyResponse(status int) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	proxyResponsesTotal.WithLabelValues(code).Inc()
}
