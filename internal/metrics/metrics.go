package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"

	// Verification Lifecycle Metrics
	VerificationCodesIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_verification_codes_issued_total",
		Help: "Total number of verification codes issued.",
	}, []string{"purpose"})
	VerificationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_verification_attempts_total",
		Help: "Total number of code verification attempts by outcome.",
	}, []string{"purpose", "outcome"}) // outcome: "accepted", "mismatch", "expired", "locked"
	PasswordResetsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_password_resets_completed_total",
		Help: "Total number of completed password resets.",
	})
	VerificationEmailFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_verification_email_failures_total",
		Help: "Total number of verification emails that failed to send.",
	})
)
