package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edgellm",
		Subsystem: "generation",
		Name:      "tokens_total",
		Help:      "Total number of tokens generated",
	})

	generationSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edgellm",
		Subsystem: "generation",
		Name:      "tokens_per_second",
		Help:      "Throughput of the most recent completed generation",
	})

	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgellm",
		Name:      "generations_total",
		Help:      "Generation passes by result (completed, aborted, failed)",
	}, []string{"result"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgellm",
		Name:      "model_loads_total",
		Help:      "Model loads by result (ok or load error kind)",
	}, []string{"result"})
)

func observeGeneration(result string, m GenerationMetrics) {
	generationsTotal.WithLabelValues(result).Inc()
	generationTokensTotal.Add(float64(m.TokensGenerated))
	if result == resultCompleted {
		generationSpeed.Set(m.TokensPerSecond())
	}
}
