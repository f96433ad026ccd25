package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func classify(err error) Action {
	if errors.Is(err, errPermanent) {
		return Stop
	}
	return Retry
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 3}, classify, func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 3}, classify, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5}, classify, func() (int, error) {
		calls++
		return 0, errPermanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var perm *PermanentError
	assert.True(t, errors.As(err, &perm))
	assert.True(t, errors.Is(err, errPermanent))
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 4}, classify, func() (int, error) {
		calls++
		return 0, errTransient
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "failed after 4 attempts")
	assert.True(t, errors.Is(err, errTransient))
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	p := Policy{
		MaxAttempts: 3,
		OnRetry:     func(attempt int, err error, _ time.Duration) { attempts = append(attempts, attempt) },
	}
	_, _ = Do(context.Background(), p, classify, func() (int, error) { return 0, errTransient })
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoVoid(t *testing.T) {
	calls := 0
	err := DoVoid(context.Background(), Policy{MaxAttempts: 2}, classify, func() error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Policy{MaxAttempts: 3, InitialBackoff: time.Minute}, classify, func() (int, error) {
		return 0, errTransient
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
