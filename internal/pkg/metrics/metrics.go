// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// SignInAttemptsTotal counts credential checks.
// Label:
//   - result: "success" or "rejected"
var SignInAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_in_attempts_total",
		Help:      "Total number of email/password credential checks, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed tokens.
// Label:
//   - type: "access" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by token type.",
	},
	[]string{"type"},
)

// TokenRejectionsTotal counts tokens that failed verification.
// Label:
//   - expected: the token type the caller asked for
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of tokens rejected during verification.",
	},
	[]string{"expected"},
)

// APIKeyAuthTotal counts API key authentication attempts.
// Label:
//   - result: "success" or "rejected"
var APIKeyAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_key_auth_total",
		Help:      "Total number of API key authentication attempts, by result.",
	},
	[]string{"result"},
)

// ── Directory metrics ─────────────────────────────────────────────────────────

// UsersCreatedTotal counts accounts created.
// Label:
//   - role: "USER" or "ADMIN"
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// ── Secret primitive metrics ──────────────────────────────────────────────────

// PasswordHashDuration measures bcrypt work, excluding time spent queued.
// Label:
//   - op: "hash" or "compare"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of bcrypt hash and compare operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
	},
	[]string{"op"},
)

// HashQueueDepth is the number of hashing jobs waiting for a worker.
var HashQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hash_queue_depth",
		Help:      "Current number of password hashing jobs waiting in the worker pool.",
	},
)

// ── Throttling metrics ────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by a rate limiter.
// Label:
//   - window: "short" or "long"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by rate limiting, by window.",
	},
	[]string{"window"},
)
