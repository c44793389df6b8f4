// Package metrics exposes Prometheus instruments for triage and reminders.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTriageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipnote",
		Name:      "triage_total",
		Help:      "Triaged inputs by the source of their descriptive fields.",
	}, []string{"source"})
	metricAIRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clipnote",
		Name:      "ai_request_seconds",
		Help:      "Latency of AI classification calls by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	metricRemindersNotified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipnote",
		Name:      "reminders_notified_total",
		Help:      "Reminders delivered and marked notified.",
	})
	metricReminderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipnote",
		Name:      "reminder_notify_failures_total",
		Help:      "Reminder deliveries that failed and will be retried on the next sweep.",
	})
)

// RecordTriage counts one triaged input
func RecordTriage(source string) {
	metricTriageTotal.WithLabelValues(source).Inc()
}

// ObserveAIRequest records the duration of one AI classification call
func ObserveAIRequest(outcome string, d time.Duration) {
	metricAIRequestSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func RecordReminderNotified() {
	metricRemindersNotified.Inc()
}

func RecordReminderFailure() {
	metricReminderFailures.Inc()
}
