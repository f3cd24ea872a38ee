package trigger

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeAcked    = "acked"
	outcomeRetry    = "retry"
	outcomeDead     = "dead"
	outcomeUnrouted = "unrouted"
)

var (
	// deliveries counts settled change deliveries.
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_trigger_deliveries_total",
			Help: "Change-feed deliveries by collection, operation and outcome.",
		},
		[]string{"collection", "op", "outcome"},
	)

	// handlerLatency records handler run time.
	handlerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_trigger_handler_seconds",
			Help:    "Duration of change handlers in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)
)

func init() {
	prometheus.MustRegister(deliveries, handlerLatency)
}
