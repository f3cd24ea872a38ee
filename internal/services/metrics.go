package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Watcher outcomes.
const (
	outcomeQueued  = "queued"
	outcomeNoToken = "no_token"
	outcomeSkipped = "skipped"
	outcomeMissing = "missing"
	outcomeError   = "error"
)

// Dispatch outcomes.
const (
	dispatchSent    = "sent"
	dispatchFailed  = "failed"
	dispatchSkipped = "skipped"
	dispatchError   = "error"
)

var (
	// watcherEvents counts watcher invocations by event kind and outcome.
	watcherEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_watcher_events_total",
			Help: "Watcher invocations by event kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// outboxEnqueued counts outbox records written, by event kind.
	outboxEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_outbox_enqueued_total",
			Help: "Outbox records appended, by event kind.",
		},
		[]string{"kind"},
	)

	// dispatches counts dispatcher invocations by outcome.
	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatch_total",
			Help: "Dispatcher invocations by outcome.",
		},
		[]string{"outcome"},
	)

	// gatewayLatency records gateway send duration; code is the gateway error
	// code, or "ok".
	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_gateway_send_seconds",
			Help:    "Duration of push gateway sends in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code"},
	)
)

func init() {
	prometheus.MustRegister(watcherEvents, outboxEnqueued, dispatches, gatewayLatency)
}
