package tasks

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "delivery",
		Name:      "activities_delivered_total",
		Help:      "Number of activity deliveries accepted by a destination inbox.",
	})

	attemptFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "delivery",
		Name:      "attempts_failed_total",
		Help:      "Number of individual delivery attempts that failed.",
	})

	abandonedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "delivery",
		Name:      "activities_abandoned_total",
		Help:      "Number of deliveries abandoned after exhausting retries.",
	})

	attemptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chorus",
		Subsystem: "delivery",
		Name:      "attempt_duration_seconds",
		Help:      "Time spent on individual delivery attempts.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, attemptFailedCounter, abandonedCounter, attemptDuration)
}
