package interest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	accrualsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interest_accruals_total",
		Help: "Interest accrual calls by status or failure kind",
	}, []string{"status"})

	creditedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interest_credited_amount_total",
		Help: "Sum of interest credited, in currency units",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interest_sweep_duration_seconds",
		Help:    "Duration of a full interest sweep",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	lastSweepTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interest_last_sweep_timestamp_seconds",
		Help: "Unix time the last interest sweep finished",
	})
)
