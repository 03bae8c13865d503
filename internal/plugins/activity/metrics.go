package activity

import "github.com/prometheus/client_golang/prometheus"

// Capture outcomes, used as the "result" label.
const (
	resultPersisted = "persisted"
	resultFailed    = "failed"
	resultDropped   = "dropped"
	resultInvalid   = "invalid"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collabwave",
		Subsystem: "activity",
		Name:      "events_total",
		Help:      "Activity events handled by the recorder, labeled by outcome.",
	}, []string{"result"})

	appendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collabwave",
		Subsystem: "activity",
		Name:      "append_duration_seconds",
		Help:      "Time spent appending one activity record to the store.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "collabwave",
		Subsystem: "activity",
		Name:      "queue_depth",
		Help:      "Activity events waiting to be appended.",
	})

	retentionDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collabwave",
		Subsystem: "activity",
		Name:      "retention_deleted_total",
		Help:      "Activity records removed by retention cleanup.",
	})
)

func init() {
	prometheus.MustRegister(eventsCounter, appendDuration, queueDepth, retentionDeleted)
}
