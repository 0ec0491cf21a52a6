package relay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redeemResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blindly_relay_redeem_total",
			Help: "Number of redeem calls by result",
		},
		[]string{"result"},
	)
	submitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blindly_relay_submit_duration_seconds",
			Help:    "Latency of gas price lookup plus confidential request submission",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func observeResult(r Result) {
	redeemResults.WithLabelValues(r.kind.String()).Inc()
}

func observeSubmit(start time.Time) {
	submitDuration.Observe(time.Since(start).Seconds())
}
