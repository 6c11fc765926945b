package extraction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractionsTotal counts extraction attempts by outcome.
	// Labels: outcome (success, model_error, incomplete, malformed_response, schema_violation, empty_input)
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfqportal",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total number of email extractions by outcome",
		},
		[]string{"outcome"},
	)

	// ExtractionDuration tracks how long the LLM call and validation take.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rfqportal",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Duration of email extractions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)

	// ExtractionRetries counts retries issued by RetryingExtractor.
	ExtractionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rfqportal",
			Subsystem: "extraction",
			Name:      "retries_total",
			Help:      "Total number of extraction retries after transient model errors",
		},
	)
)

func recordOutcome(err error) {
	outcome := "success"
	if f, ok := err.(*Failure); ok {
		outcome = string(f.Reason)
	}
	ExtractionsTotal.WithLabelValues(outcome).Inc()
}
