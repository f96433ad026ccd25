package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Accounting Metrics
var (
	// SessionsFinalizedTotal tracks session finalizations by result
	SessionsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_finalized_total",
			Help: "Total watch session finalizations by result (accepted/too_short/invalid/conflict/error)",
		},
		[]string{"result"},
	)

	// TabSwitchPenaltiesTotal tracks tab-switch penalties applied
	TabSwitchPenaltiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tab_switch_penalties_total",
			Help: "Total tab-switch penalties applied",
		},
	)

	// CoinsAwardedTotal tracks coins credited by source
	CoinsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coins_awarded_total",
			Help: "Total coins credited by source (daily_bonus/streak_bonus/manual)",
		},
		[]string{"source"},
	)

	// StreakResetsTotal tracks streaks broken by a gap of more than one day
	StreakResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "Total streak resets caused by missed days",
		},
	)

	// SessionCommitRetriesTotal tracks optimistic-concurrency retries during session commit
	SessionCommitRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_commit_retries_total",
			Help: "Total session commits retried after a version conflict",
		},
	)
)

// Leaderboard Metrics
var (
	// LeaderboardUpdateFailuresTotal tracks best-effort leaderboard updates that failed
	LeaderboardUpdateFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leaderboard_update_failures_total",
			Help: "Total failed best-effort leaderboard score updates",
		},
	)

	// LeaderboardFetchesTotal tracks leaderboard reads by status
	LeaderboardFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_fetches_total",
			Help: "Total leaderboard fetches by status (ok/error)",
		},
		[]string{"status"},
	)
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Detector Metrics
var (
	// DetectorRunning is 1 while the detector subprocess is alive
	DetectorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detector_running",
			Help: "1 if the focus detector subprocess is running, 0 otherwise",
		},
	)

	// DetectorStartsTotal tracks detector starts by result
	DetectorStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_starts_total",
			Help: "Total detector start attempts by result (started/already_running/error)",
		},
		[]string{"result"},
	)
)

// HTTP Error Metrics
// Note: http_errors_total{type} is provided by the internal/errors package.
