package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeploymentsTotal counts finished deployment sagas by network and outcome
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_deployments_total",
			Help: "Total number of token deployment attempts",
		},
		[]string{"network", "status"},
	)

	// DeploymentDuration tracks end-to-end saga duration
	DeploymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchpad_deployment_duration_seconds",
			Help:    "Token deployment saga duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"network"},
	)

	// StageTransitions counts saga stage entries
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_stage_transitions_total",
			Help: "Total number of deployment stage transitions",
		},
		[]string{"stage"},
	)

	// ActiveDeployments tracks sagas currently in flight
	ActiveDeployments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchpad_active_deployments",
			Help: "Number of deployment sagas currently in flight",
		},
	)

	// ReconciliationRepairs counts diverged records repaired by the background job
	ReconciliationRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_reconciliation_repairs_total",
			Help: "Total number of diverged token records repaired",
		},
	)

	// ReconciliationPending tracks records with a tx hash but no contract address
	ReconciliationPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchpad_reconciliation_pending",
			Help: "Number of token records awaiting reconciliation",
		},
	)
)
