// Package metrics holds the Prometheus instruments for the login pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts login outcomes and incentive activity.
type Metrics struct {
	LoginAttempts        *prometheus.CounterVec
	CustomersProvisioned prometheus.Counter
	IncentivePoints      prometheus.Counter
	SessionFallbacks     prometheus.Counter
}

// New creates and registers all metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_gateway_login_attempts_total",
			Help: "Login attempts by terminal outcome.",
		}, []string{"outcome"}),
		CustomersProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_gateway_customers_provisioned_total",
			Help: "Customer records auto-created via shop referrals.",
		}),
		IncentivePoints: factory.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_gateway_incentive_points_total",
			Help: "Sign-up bonus points credited to new customers.",
		}),
		SessionFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_gateway_session_fallbacks_total",
			Help: "Logins completed with the raw provider token because session issuance failed.",
		}),
	}
}

// Outcome labels used with LoginAttempts.
const (
	OutcomeEmployee        = "employee"
	OutcomeCustomer        = "customer"
	OutcomeProvisioned     = "provisioned"
	OutcomeNotRegistered   = "not_registered"
	OutcomeProvisionFailed = "provision_failed"
	OutcomeError           = "error"
)
