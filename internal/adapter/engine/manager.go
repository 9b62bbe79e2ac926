// Package engine owns the process-wide handle to the orchestration engine.
// It is an explicit, injectable instance rather than a package-level
// singleton so tests can construct their own manager against a fake dialer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/kbforge/kbforge/internal/config"
	"github.com/kbforge/kbforge/internal/resilience"
)

// ErrUnavailable classifies connection-layer failures. Callers catch it at
// the workflow-start boundary and degrade instead of failing the request.
var ErrUnavailable = errors.New("orchestration engine unavailable")

// State is a point-in-time snapshot of the connection.
type State struct {
	Available bool
	Attempts  int
	LastError error
	HasClient bool
}

// Dialer opens a new engine client. Injectable for tests.
type Dialer func() (client.Client, error)

// Manager is the connection state machine: disconnected, connecting,
// connected, and back to disconnected on any I/O error during use.
//
// dialMu serializes connection attempts so concurrent start/signal callers
// never race on the same dial; stateMu guards the snapshot fields so
// Status() stays non-blocking while a dial loop is in flight.
type Manager struct {
	dialMu sync.Mutex
	dial   Dialer
	retry  resilience.Retry

	stateMu sync.Mutex
	handle  client.Client
	up      bool
	tries   int
	lastErr error
}

// New creates a Manager that dials a real Temporal frontend.
func New(cfg config.Temporal) *Manager {
	return NewWithDialer(func() (client.Client, error) {
		return client.Dial(client.Options{
			HostPort:  cfg.HostPort,
			Namespace: cfg.Namespace,
			Logger:    sdklog.NewStructuredLogger(slog.Default()),
		})
	})
}

// NewWithDialer creates a Manager with a custom dialer and the default
// connect retry policy (three attempts, escalating 1s/2s/3s backoff).
func NewWithDialer(dial Dialer) *Manager {
	return &Manager{
		dial:  dial,
		retry: resilience.DefaultConnectRetry(),
	}
}

// EnsureConnected returns a usable engine handle, dialing with retry if
// necessary. On exhaustion it marks the connection unavailable and returns
// an error wrapping ErrUnavailable. It blocks the caller for the duration
// of the retry loop, bounded by the policy (~6s worst case).
func (m *Manager) EnsureConnected(ctx context.Context) (client.Client, error) {
	m.dialMu.Lock()
	defer m.dialMu.Unlock()

	if c := m.current(); c != nil {
		return c, nil
	}
	m.dropHandle()

	var c client.Client
	err := m.retry.Do(ctx, func() error {
		attempt := m.recordAttempt()
		cc, dialErr := m.dial()
		if dialErr != nil {
			m.recordError(dialErr)
			slog.Warn("engine dial failed", "attempt", attempt, "error", dialErr)
			return dialErr
		}
		c = cc
		return nil
	})
	if err != nil {
		m.stateMu.Lock()
		m.up = false
		if m.lastErr == nil {
			m.lastErr = err
		}
		m.stateMu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	m.stateMu.Lock()
	m.handle = c
	m.up = true
	m.tries = 0
	m.lastErr = nil
	m.stateMu.Unlock()
	slog.Info("engine connected")
	return c, nil
}

// current returns the live handle, or nil when a dial is needed.
// Callers must hold dialMu.
func (m *Manager) current() client.Client {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.up && m.handle != nil {
		return m.handle
	}
	return nil
}

// dropHandle closes a stale handle left over from a previous session.
// Callers must hold dialMu.
func (m *Manager) dropHandle() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
}

func (m *Manager) recordAttempt() int {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.tries++
	return m.tries
}

func (m *Manager) recordError(err error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.lastErr = err
}

// Status returns the current connection snapshot without dialing.
func (m *Manager) Status() State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return State{
		Available: m.up,
		Attempts:  m.tries,
		LastError: m.lastErr,
		HasClient: m.handle != nil,
	}
}

// MarkDown records a connection drop observed during use, if the error is a
// transport-level failure. Returns true when the connection was marked down.
func (m *Manager) MarkDown(err error) bool {
	if !IsTransport(err) {
		return false
	}
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.up = false
	m.lastErr = err
	slog.Warn("engine connection lost", "error", err)
	return true
}

// Reset clears the last error and the attempt counter so the next
// EnsureConnected retries from scratch. Used by manual retry actions.
func (m *Manager) Reset() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.tries = 0
	m.lastErr = nil
}

// Close releases the underlying client, if any.
func (m *Manager) Close() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	m.up = false
}

// IsTransport reports whether err is an engine-unreachable failure rather
// than a business-level rejection from the service.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var unavailable *serviceerror.Unavailable
	var deadline *serviceerror.DeadlineExceeded
	return errors.As(err, &unavailable) || errors.As(err, &deadline)
}
