package llm

import "github.com/prometheus/client_golang/prometheus"

var (
	// generationAttempts counts every provider attempt, including retries.
	generationAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Total number of generative-provider attempts, retries included.",
		},
	)

	// generationFailures counts failed attempts by reason:
	// rejected (non-retryable), transient (retryable), empty (no text).
	generationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_failures_total",
			Help: "Total number of failed generative-provider attempts.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(generationAttempts, generationFailures)
}
