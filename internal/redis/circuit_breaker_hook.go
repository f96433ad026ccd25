package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"

	"github.com/studypulse/studypulse/internal/metrics"
)

// CircuitBreakerHook implements redis.Hook to add circuit breaker protection
// to all Redis operations, so a slow or dead Redis cannot drag request
// handling down with it. The hook pattern covers every command the client
// issues, including the best-effort leaderboard writes on each coin change.
type CircuitBreakerHook struct {
	cb    circuitbreaker.CircuitBreaker[any]
	cache *rankingCache
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// rankingCache holds the last successful leaderboard reads so an open
// circuit can serve a stale ranking instead of an error.
type rankingCache struct {
	mu      sync.RWMutex
	entries map[string]cachedRanking
}

type cachedRanking struct {
	members   []goredis.Z
	timestamp time.Time
}

const rankingCacheTTL = 5 * time.Minute

// NewCircuitBreakerHook creates a circuit breaker hook with the following
// settings:
// - WithFailureRateThreshold: 60% failure rate, min 5 requests, 10s rolling window
// - WithDelay: 30s before transitioning from open to half-open
// - WithSuccessThreshold: 1 successful request in half-open to close
func NewCircuitBreakerHook() *CircuitBreakerHook {
	cb := circuitbreaker.Builder[any]().
		WithFailureRateThreshold(60, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "redis",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)

			metrics.CircuitBreakerStateChanges.WithLabelValues("redis", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateToFloat(e.NewState))
		}).
		Build()

	return &CircuitBreakerHook{
		cb: cb,
		cache: &rankingCache{
			entries: make(map[string]cachedRanking),
		},
	}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// DialHook wraps connection establishment with the circuit breaker
func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !h.cb.TryAcquirePermit() {
			return nil, fmt.Errorf("circuit breaker dial failed: %w", circuitbreaker.ErrOpen)
		}
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.cb.RecordError(err)
			return nil, fmt.Errorf("circuit breaker dial failed: %w", err)
		}
		h.cb.RecordSuccess()
		return conn, nil
	}
}

// ProcessHook wraps command execution with the circuit breaker and caches
// leaderboard reads for fallback
func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			return h.handleFallback(cmd)
		}

		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, goredis.Nil) {
			h.cb.RecordError(err)
		} else {
			h.cb.RecordSuccess()
		}

		if err == nil {
			h.cacheResult(cmd)
		}

		if err != nil {
			return fmt.Errorf("circuit breaker process failed: %w", err)
		}
		return nil
	}
}

// ProcessPipelineHook wraps pipeline execution with the circuit breaker
func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			return fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
		}

		err := next(ctx, cmds)
		if err != nil {
			h.cb.RecordError(err)
			return fmt.Errorf("circuit breaker pipeline failed: %w", err)
		}
		h.cb.RecordSuccess()
		return nil
	}
}

// handleFallback serves a stale ranking for leaderboard reads while the
// circuit is open. Writes fail fast; the scores are rebuilt from Postgres
// on the next coin change anyway.
func (h *CircuitBreakerHook) handleFallback(cmd goredis.Cmder) error {
	switch cmd.Name() {
	case "zrevrange":
		if members, ok := h.getFromCache(cmd); ok {
			slog.Debug("Circuit breaker open, serving stale leaderboard",
				"command", cmd.Name(),
				"args", cmd.Args(),
			)
			if c, ok := cmd.(*goredis.ZSliceCmd); ok {
				c.SetVal(members)
				return nil
			}
		}
		return fmt.Errorf("redis circuit breaker open and no cached ranking: %w", circuitbreaker.ErrOpen)

	case "zadd", "zrem":
		slog.Warn("Circuit breaker open for leaderboard write",
			"command", cmd.Name(),
			"args", cmd.Args(),
		)
		return fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)

	default:
		return fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
	}
}

// cacheResult stores successful leaderboard reads for future fallback
func (h *CircuitBreakerHook) cacheResult(cmd goredis.Cmder) {
	if cmd.Name() != "zrevrange" {
		return
	}

	c, ok := cmd.(*goredis.ZSliceCmd)
	if !ok {
		return
	}
	members, err := c.Result()
	if err != nil {
		return
	}

	key, ok := cacheKey(cmd)
	if !ok {
		return
	}

	h.cache.mu.Lock()
	h.cache.entries[key] = cachedRanking{
		members:   members,
		timestamp: time.Now(),
	}
	h.cache.mu.Unlock()
}

// getFromCache retrieves a cached ranking if present and not expired
func (h *CircuitBreakerHook) getFromCache(cmd goredis.Cmder) ([]goredis.Z, bool) {
	key, ok := cacheKey(cmd)
	if !ok {
		return nil, false
	}

	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	cached, ok := h.cache.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(cached.timestamp) > rankingCacheTTL {
		return nil, false
	}
	return cached.members, true
}

// cacheKey identifies a read by its full argument list so different ranges
// of the same sorted set do not collide.
func cacheKey(cmd goredis.Cmder) (string, bool) {
	args := cmd.Args()
	if len(args) < 2 {
		return "", false
	}
	return fmt.Sprintf("%v", args[1:]), true
}

// GetState returns the current state of the circuit breaker (for testing/monitoring)
func (h *CircuitBreakerHook) GetState() circuitbreaker.State {
	return h.cb.State()
}
