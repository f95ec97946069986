package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttemptsTotal counts credential checks by outcome
	// (success, failure, blocked, pending).
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_auth_login_attempts_total",
		Help: "The total number of credential verification attempts",
	}, []string{"outcome"})

	// SecondFactorChecksTotal counts second-factor checks by method
	// (totp, recovery_code) and outcome.
	SecondFactorChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_auth_second_factor_checks_total",
		Help: "The total number of second factor checks",
	}, []string{"method", "outcome"})

	// AccountTokensIssuedTotal counts issued verification/reset link tokens.
	AccountTokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pass_auth_account_tokens_issued_total",
		Help: "The total number of account link tokens issued",
	})

	// SessionsReapedTotal counts sessions removed by garbage collection.
	SessionsReapedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pass_auth_sessions_reaped_total",
		Help: "The total number of sessions removed by GC",
	})

	// EmailsSentTotal counts outbound notification emails by kind and outcome.
	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_auth_emails_sent_total",
		Help: "The total number of notification emails sent",
	}, []string{"kind", "outcome"})

	// HTTPRequestsTotal counts handled requests by route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_auth_http_requests_total",
		Help: "The total number of handled HTTP requests",
	}, []string{"path", "status"})

	// HTTPRequestDuration observes request handling latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pass_auth_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)
