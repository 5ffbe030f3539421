// Package metrics exposes Prometheus instruments for the request pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "platform_client"

var (
	// RequestsSubmitted counts requests handed to the dispatcher, by method.
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_submitted_total",
			Help:      "Total requests submitted to the dispatcher.",
		},
		[]string{"method"},
	)

	// RequestsClassified counts completed round-trips by outcome kind
	// ("success", "transport" or an error kind such as "session_expired").
	RequestsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_classified_total",
			Help:      "Total round-trips by classified outcome.",
		},
		[]string{"kind"},
	)

	// RequestsDeferred counts requests parked in the pending queue.
	RequestsDeferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_deferred_total",
			Help:      "Total requests deferred to the pending queue.",
		},
		[]string{"kind"},
	)

	// RequestsReplayed counts queued requests re-issued by a drain.
	RequestsReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_replayed_total",
			Help:      "Total queued requests replayed by a drain.",
		},
	)

	// QueueDepth tracks the pending queue length.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_queue_depth",
			Help:      "Requests currently waiting in the pending queue.",
		},
	)

	// EventsPublished counts notifications by kind.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total pipeline notifications published.",
		},
		[]string{"kind"},
	)

	// RequestLatency tracks transport round-trip latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Transport round-trip latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Reachable is 1 when the API host is reachable, 0 otherwise.
	Reachable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_reachable",
			Help:      "Whether the API host is currently reachable.",
		},
	)
)
