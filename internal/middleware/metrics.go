package middleware

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collabwave",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collabwave",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	panicsRecovered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collabwave",
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Handler panics turned into 500 responses.",
	})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collabwave",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected with 429.",
	})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, panicsRecovered, rateLimited)
}

// routeLabel is the matched route pattern, which keeps label cardinality
// bounded. Unmatched requests share one label.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}
