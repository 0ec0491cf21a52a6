package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pendingSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blindly_watcher_pending_tx_total",
			Help: "Number of pending transaction hashes observed",
		},
	)
	receiptFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blindly_watcher_receipt_fetch_failures_total",
			Help: "Number of receipts that could not be fetched",
		},
	)
	eventsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blindly_watcher_events_total",
			Help: "Number of decoded mixer events by name",
		},
		[]string{"event"},
	)
	resubscriptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blindly_watcher_resubscriptions_total",
			Help: "Number of times the pending transaction subscription was re-established",
		},
	)
	natsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blindly_watcher_nats_connected",
			Help: "Whether the nats audit sink is connected",
		},
	)
)
