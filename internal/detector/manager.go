// Package detector manages the external focus-detector process. The
// process is optional: when no command is configured the endpoints
// report it as unavailable.
package detector

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/studypulse/studypulse/internal/domain"
	"github.com/studypulse/studypulse/internal/metrics"
)

const stopGracePeriod = 5 * time.Second

// Status is a point-in-time snapshot of the detector process.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Manager starts and stops a single detector process. At most one
// instance runs at a time; Start on a running manager fails instead of
// spawning a second copy.
type Manager struct {
	command string
	args    []string

	// grace bounds how long Stop waits for the process to die.
	grace time.Duration

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time
	done      chan struct{}
}

// NewManager builds a manager for the given shell-free command line,
// e.g. "python3 detector.py".
func NewManager(commandLine string) *Manager {
	fields := strings.Fields(commandLine)
	m := &Manager{grace: stopGracePeriod}
	if len(fields) > 0 {
		m.command = fields[0]
		m.args = fields[1:]
	}
	return m
}

// Configured reports whether a command line was provided at all.
func (m *Manager) Configured() bool {
	return m.command != ""
}

// Start launches the detector process. Returns ErrDetectorRunning when
// an instance is already alive.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		metrics.DetectorStartsTotal.WithLabelValues("already_running").Inc()
		return domain.ErrDetectorRunning
	}

	cmd := exec.Command(m.command, m.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		metrics.DetectorStartsTotal.WithLabelValues("error").Inc()
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		metrics.DetectorStartsTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := cmd.Start(); err != nil {
		metrics.DetectorStartsTotal.WithLabelValues("error").Inc()
		return err
	}

	m.cmd = cmd
	m.startedAt = time.Now()
	m.done = make(chan struct{})
	metrics.DetectorStartsTotal.WithLabelValues("started").Inc()
	metrics.DetectorRunning.Set(1)
	slog.Info("Detector started", "pid", cmd.Process.Pid, "command", m.command)

	go pipeToLog(stdout, slog.LevelInfo)
	go pipeToLog(stderr, slog.LevelWarn)
	go m.wait(cmd, m.done)

	return nil
}

// wait reaps the process and clears the handle once it exits, whether
// it was stopped or died on its own.
func (m *Manager) wait(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()
	close(done)

	m.mu.Lock()
	if m.cmd == cmd {
		m.cmd = nil
		m.startedAt = time.Time{}
		m.done = nil
	}
	m.mu.Unlock()

	metrics.DetectorRunning.Set(0)
	if err != nil {
		slog.Warn("Detector exited", "error", err)
	} else {
		slog.Info("Detector exited")
	}
}

// Stop signals the running process and waits for it to exit. Returns
// ErrDetectorStopped when nothing is running and ErrDetectorStopTimeout
// when the process survives the grace period after the kill.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cmd := m.cmd
	done := m.done
	m.mu.Unlock()

	if cmd == nil {
		return domain.ErrDetectorStopped
	}

	if err := cmd.Process.Kill(); err != nil {
		slog.Warn("Failed to kill detector process", "error", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(m.grace):
		slog.Warn("Detector ignored kill signal", "pid", cmd.Process.Pid, "grace", m.grace)
		return domain.ErrDetectorStopTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports whether the detector is alive right now.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return Status{Running: false}
	}
	return Status{
		Running:   true,
		PID:       m.cmd.Process.Pid,
		StartedAt: m.startedAt,
	}
}

func pipeToLog(r io.Reader, level slog.Level) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.Log(context.Background(), level, "detector: "+scanner.Text())
	}
}
