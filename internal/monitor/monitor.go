package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreq/internal/shared"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultDeadline = 300 * time.Second
	DefaultGrace    = 1 * time.Second
)

// State is the player's observed reachability.
type State int

const (
	Unknown State = iota
	Connected
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prober reports whether the player answers.
type Prober interface {
	IsReachable(ctx context.Context) bool
}

// Options configures a [Monitor]. Zero values take the package defaults, so the
// auto-shutdown deadline is armed unless DisableAutoShutdown is set.
type Options struct {
	Interval            time.Duration
	Deadline            time.Duration
	Grace               time.Duration
	DisableAutoShutdown bool
	Logger              *log.Logger
}

// Snapshot is a point-in-time copy of the monitor's state.
type Snapshot struct {
	State           State     `json:"state"`
	Connected       bool      `json:"connected"`
	DeadlinePending bool      `json:"deadlinePending"`
	ShutdownPending bool      `json:"shutdownPending"`
	LastChecked     time.Time `json:"lastChecked"`
}

// Monitor polls a [Prober] and drives the auto-shutdown timer.
type Monitor struct {
	prober Prober
	opts   Options
	logger *log.Logger

	mu          sync.Mutex
	state       State
	lastChecked time.Time
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	deadline    *time.Timer
	deadlineGen uint64
	grace       *time.Timer
	graceGen    uint64

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New creates a [Monitor] for prober.
func New(prober Prober, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Monitor{
		prober:   prober,
		opts:     opts,
		logger:   shared.WithLogger(logger, "component", "monitor"),
		done:     make(chan struct{}),
		shutdown: make(chan struct{}),
	}
}

// Start arms the auto-shutdown deadline and starts polling. The first probe runs immediately.
//
// Calling Start more than once, or after [Monitor.Stop], does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.stopped {
		return
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)

	if !m.opts.DisableAutoShutdown {
		m.deadlineGen++
		gen := m.deadlineGen
		m.deadline = time.AfterFunc(m.opts.Deadline, func() { m.onDeadline(gen) })
		m.logger.Info("auto-shutdown armed", "after", m.opts.Deadline)
	}

	go m.run(ctx)
}

// Stop cancels pending timers and halts polling, waiting for the poll loop to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	started := m.started
	m.cancelDeadline()
	m.cancelGrace()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	if started {
		<-m.done
	}
	m.logger.Debug("monitor stopped")
}

// State returns the current [State].
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the last probe found the player.
func (m *Monitor) Connected() bool {
	return m.State() == Connected
}

// Snapshot returns a copy of the monitor's state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:           m.state,
		Connected:       m.state == Connected,
		DeadlinePending: m.deadline != nil,
		ShutdownPending: m.grace != nil,
		LastChecked:     m.lastChecked,
	}
}

// ShutdownRequested returns a channel that is closed once the auto-shutdown fires.
func (m *Monitor) ShutdownRequested() <-chan struct{} {
	return m.shutdown
}

// Check probes the player once and applies the result.
func (m *Monitor) Check(ctx context.Context) State {
	ok := m.prober.IsReachable(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return m.state
	}

	m.lastChecked = time.Now()
	prev := m.state

	switch {
	case ok:
		m.state = Connected
		if prev != Connected {
			m.logger.Info("player connected")
		}
		if m.deadline != nil || m.grace != nil {
			m.cancelDeadline()
			m.cancelGrace()
			m.logger.Info("auto-shutdown cancelled")
		}
	case prev == Connected:
		m.state = Disconnected
		m.logger.Warn("player connection lost")
	default:
		m.logger.Debug("player not reachable", "state", prev)
	}

	return m.state
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	m.Check(ctx)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) onDeadline(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || m.deadline == nil || gen != m.deadlineGen {
		return
	}
	m.deadline = nil

	if m.state == Connected {
		m.logger.Info("auto-shutdown deadline reached while connected")
		return
	}

	m.logger.Error("player still unreachable, shutting down", "after", m.opts.Deadline, "grace", m.opts.Grace)
	m.logger.Info("make sure the player is running, then start songreq again")

	m.graceGen++
	graceGen := m.graceGen
	m.grace = time.AfterFunc(m.opts.Grace, func() { m.onGrace(graceGen) })
}

func (m *Monitor) onGrace(gen uint64) {
	m.mu.Lock()
	if m.stopped || m.grace == nil || gen != m.graceGen {
		m.mu.Unlock()
		return
	}
	m.grace = nil
	m.mu.Unlock()

	m.shutdownOnce.Do(func() { close(m.shutdown) })
}

// cancelDeadline must be called with mu held.
func (m *Monitor) cancelDeadline() {
	if m.deadline != nil {
		m.deadline.Stop()
		m.deadline = nil
	}
	m.deadlineGen++
}

// cancelGrace must be called with mu held.
func (m *Monitor) cancelGrace() {
	if m.grace != nil {
		m.grace.Stop()
		m.grace = nil
	}
	m.graceGen++
}
