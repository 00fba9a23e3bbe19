package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the orchestration core.
type Metrics struct {
	OperationsTotal     *prometheus.CounterVec
	RoleSwitchesTotal   prometheus.Counter
	AccountsProvisioned prometheus.Counter
	ConfirmationSeconds prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lading_operations_total",
			Help: "Orchestrated operations by kind and terminal status",
		}, []string{"kind", "status"}),
		RoleSwitchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lading_role_switches_total",
			Help: "Active role switches across both identity paths",
		}),
		AccountsProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lading_accounts_provisioned_total",
			Help: "Localnet accounts generated and funded by the provisioner",
		}),
		ConfirmationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lading_confirmation_wait_seconds",
			Help:    "Time spent waiting for on-chain confirmation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40},
		}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests never
// collide on duplicate registration.
func NewForTest() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lading_operations_total",
			Help: "Orchestrated operations by kind and terminal status",
		}, []string{"kind", "status"}),
		RoleSwitchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lading_role_switches_total",
			Help: "Active role switches across both identity paths",
		}),
		AccountsProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "lading_accounts_provisioned_total",
			Help: "Localnet accounts generated and funded by the provisioner",
		}),
		ConfirmationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lading_confirmation_wait_seconds",
			Help:    "Time spent waiting for on-chain confirmation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40},
		}),
	}
}
