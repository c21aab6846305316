package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizgrade"

var (
	attemptsGraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_graded_total",
		Help:      "Number of graded quiz attempts by outcome.",
	}, []string{"outcome"})

	attemptScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "attempt_score_percent",
		Help:      "Score percentage of graded quiz attempts.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	gradingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "grading_duration_seconds",
		Help:      "Time spent grading one set of answers.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)

// ObserveAttempt records the outcome of a persisted attempt.
func ObserveAttempt(scorePercent int, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}

	attemptsGraded.WithLabelValues(outcome).Inc()
	attemptScore.Observe(float64(scorePercent))
}

// ObserveGrading records how long a grading call took.
func ObserveGrading(d time.Duration) {
	gradingDuration.Observe(d.Seconds())
}
