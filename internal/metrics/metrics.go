package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kirana_reconcile_runs_total",
			Help: "Total number of reconciliation runs grouped by job and result",
		},
		[]string{"job", "result"},
	)

	DriftCorrectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kirana_drift_corrections_total",
			Help: "Local order states corrected from an external system of record",
		},
		[]string{"job"},
	)

	DuplicateSaleAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kirana_duplicate_sale_attempts_total",
			Help: "Sale deductions rejected by the ledger duplicate guard",
		},
	)

	OversellRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kirana_oversell_rejections_total",
			Help: "Stock mutations rejected because they would drive stock below zero",
		},
	)

	OutboxDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kirana_outbox_dispatch_total",
			Help: "Outbox messages dispatched grouped by channel and result",
		},
		[]string{"channel", "result"},
	)

	InvariantViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kirana_invariant_violations_total",
			Help: "Internal consistency breaks requiring manual intervention",
		},
	)
)
