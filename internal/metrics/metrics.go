package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApprovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "candidate_approvals_total",
			Help: "Total number of candidate profile approvals",
		},
	)

	RejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "candidate_rejections_total",
			Help: "Total number of candidate profile rejections",
		},
	)

	UnlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_unlocks_total",
			Help: "Total number of paid profile unlocks",
		},
	)

	InsufficientCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_deductions_rejected_total",
			Help: "Total number of deductions rejected for insufficient credits",
		},
	)

	MigrationStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_migration_step_failures_total",
			Help: "Migration step failures during approval, by category",
		},
		[]string{"step"},
	)

	ApprovalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_approval_duration_seconds",
			Help:    "Duration of the approval migration",
			Buckets: prometheus.DefBuckets,
		},
	)
)
