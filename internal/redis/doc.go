// Package redis provides the go-redis client setup and the coins
// leaderboard backed by a sorted set. Every command runs through the
// metrics hook and a circuit breaker hook that fails fast while Redis
// is down and serves a stale ranking for leaderboard reads.
package redis
