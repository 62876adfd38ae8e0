package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics observes the authentication core.
type AuthMetrics struct {
	loginAttempts    *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
}

// NewAuthMetrics creates the Prometheus-backed auth metric set.
//
// Returns nil if metrics are not enabled (InitRegistry not called); the
// nil receiver records nothing.
func NewAuthMetrics() *AuthMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &AuthMetrics{
		loginAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "epmon_auth_login_attempts_total",
				Help: "Login attempts by provider and outcome",
			},
			[]string{"provider", "outcome"}, // outcome: "success", "credential_error", "provider_error"
		),
		tokenValidations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "epmon_auth_token_validations_total",
				Help: "Bearer token validations by outcome",
			},
			[]string{"outcome"}, // "valid", "expired", "invalid"
		),
	}
}

// RecordLoginAttempt records one provider verification attempt.
func (m *AuthMetrics) RecordLoginAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordTokenValidation records one bearer token validation.
func (m *AuthMetrics) RecordTokenValidation(outcome string) {
	if m == nil {
		return
	}
	m.tokenValidations.WithLabelValues(outcome).Inc()
}
