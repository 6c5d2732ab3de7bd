package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by outcome",
	}, []string{"operation", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Ledger operation latency including retries",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_unit_of_work_retries_total",
		Help: "Units of work retried after a concurrency conflict",
	}, []string{"operation"})
)

func recordOutcome(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}
