package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics records authentication, registration and seeding activity.
type AuthMetrics struct {
	attempts      *prometheus.CounterVec
	registrations prometheus.Counter
	seeded        prometheus.Counter
}

// NewAuthMetrics registers the auth metrics on the provided registerer. A nil
// registerer yields a no-op instance, as does calling methods on a nil value.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authn_attempts_total",
		Help: "Authentication attempts by outcome.",
	}, []string{"outcome"})
	registrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authn_registrations_total",
		Help: "Successful user registrations.",
	})
	seeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authn_seeded_accounts_total",
		Help: "Accounts created by the seeder.",
	})
	reg.MustRegister(attempts, registrations, seeded)
	return &AuthMetrics{
		attempts:      attempts,
		registrations: registrations,
		seeded:        seeded,
	}
}

// IncAttempt counts one authentication attempt for the given outcome label.
func (m *AuthMetrics) IncAttempt(outcome string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRegistration counts one successful registration.
func (m *AuthMetrics) IncRegistration() {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.Inc()
}

// IncSeeded counts one seeded account.
func (m *AuthMetrics) IncSeeded() {
	if m == nil || m.seeded == nil {
		return
	}
	m.seeded.Inc()
}

func normalizeLabel(outcome string) string {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
