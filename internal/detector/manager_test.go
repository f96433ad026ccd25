package detector

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse/internal/domain"
)

func TestManager_Configured(t *testing.T) {
	assert.False(t, NewManager("").Configured())
	assert.True(t, NewManager("sleep 10").Configured())
}

func TestManager_StartAndStop(t *testing.T) {
	m := NewManager("sleep 10")
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))

	status := m.Status()
	assert.True(t, status.Running)
	assert.NotZero(t, status.PID)
	assert.False(t, status.StartedAt.IsZero())

	require.NoError(t, m.Stop(ctx))
	assert.False(t, m.Status().Running)
}

func TestManager_Start_AlreadyRunning(t *testing.T) {
	m := NewManager("sleep 10")
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	defer m.Stop(ctx) //nolint:errcheck

	err := m.Start(ctx)
	assert.ErrorIs(t, err, domain.ErrDetectorRunning)
}

func TestManager_Stop_NotRunning(t *testing.T) {
	m := NewManager("sleep 10")

	err := m.Stop(context.Background())
	assert.ErrorIs(t, err, domain.ErrDetectorStopped)
}

func TestManager_Stop_TimeoutWhenProcessOutlivesGrace(t *testing.T) {
	// Start the process without a waiter, so the exit is never observed and
	// Stop runs into its grace period like it would against a process that
	// survives the kill signal.
	cmd := exec.Command("sleep", "10")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	m := &Manager{
		command: "sleep",
		grace:   50 * time.Millisecond,
		cmd:     cmd,
		done:    make(chan struct{}),
	}

	err := m.Stop(context.Background())
	assert.ErrorIs(t, err, domain.ErrDetectorStopTimeout)
}

func TestManager_Start_InvalidCommand(t *testing.T) {
	m := NewManager("definitely-not-a-real-binary-12345")

	err := m.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, m.Status().Running)
}

func TestManager_RestartAfterExit(t *testing.T) {
	m := NewManager("true")
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))

	// The process exits on its own; the handle clears shortly after.
	require.Eventually(t, func() bool {
		return !m.Status().Running
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Start(ctx))
	require.Eventually(t, func() bool {
		return !m.Status().Running
	}, 2*time.Second, 10*time.Millisecond)
}
