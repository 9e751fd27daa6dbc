// Package manager maintains live connections to multiple tool backends and
// exposes a unified surface for discovering and invoking their tools.
//
// The Manager owns all backend state: a registry of per-backend sessions, a
// background health monitor that demotes unresponsive backends, and a retry
// scheduler that re-establishes dropped sessions. A failed health check
// never removes an entry; it only flips its liveness so the last known tool
// inventory stays queryable while the backend recovers.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/standardbeagle/toolmux/internal/config"
	"github.com/standardbeagle/toolmux/internal/logging"
)

// ErrShutdown is returned by operations issued after ShutdownAll.
var ErrShutdown = errors.New("manager is shut down")

// BackendState is the lifecycle state of a managed backend.
type BackendState string

const (
	StateConfigured   BackendState = "configured"
	StateConnecting   BackendState = "connecting"
	StateConnected    BackendState = "connected"
	StateDisconnected BackendState = "disconnected"
)

// Health status values reported by GetHealth.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// HealthStatus is the per-backend view returned by GetHealth.
type HealthStatus struct {
	Status      string    `json:"status"`
	LastContact time.Time `json:"last_contact"`
	ToolCount   int       `json:"tool_count"`
}

// Metrics is the point-in-time aggregate returned by GetMetrics.
// TotalTools counts only tools that are currently dispatchable.
type Metrics struct {
	TotalBackends     int `json:"total_backends"`
	ConnectedBackends int `json:"connected_backends"`
	TotalTools        int `json:"total_tools"`
}

// BackendStatus is a read-only snapshot of one registry entry.
type BackendStatus struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	State        BackendState `json:"state"`
	Connected    bool         `json:"connected"`
	ToolCount    int          `json:"tool_count"`
	LastContact  time.Time    `json:"last_contact"`
	Error        string       `json:"error,omitempty"`
	Source       string       `json:"source"`
	RetryPending bool         `json:"retry_pending"`
}

// Recorder receives manager events for metrics export. Implementations
// must be safe for concurrent use.
type Recorder interface {
	ObserveToolCall(backend, tool string)
	ObserveToolCallError(backend, tool string)
	ObserveReconnectAttempt(backend string)
	ObservePing(backend string, healthy bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveToolCall(string, string)      {}
func (nopRecorder) ObserveToolCallError(string, string) {}
func (nopRecorder) ObserveReconnectAttempt(string)      {}
func (nopRecorder) ObservePing(string, bool)            {}

// backendState is one registry entry. All fields are guarded by Manager.mu.
type backendState struct {
	config      config.BackendConfig
	conn        Conn
	state       BackendState
	lastContact time.Time
	lastError   error
	tools       []ToolInfo
}

// Manager is the single owner of all backend connections.
//
// Lock ordering: retryMu may acquire mu (read) while held; mu never
// acquires retryMu.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*backendState

	dial     Dialer
	logger   logging.Logger
	recorder Recorder

	healthInterval time.Duration
	reconnectDelay time.Duration
	pingTimeout    time.Duration

	retryMu sync.Mutex
	retries map[string]*time.Timer
	retryWG sync.WaitGroup
	closeWG sync.WaitGroup

	healthStop chan struct{}
	healthDone chan struct{}
	started    bool
	shutdown   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the transport used to reach backends. Tests use this
// to substitute in-memory connections.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dial = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithHealthInterval sets the health-check interval.
func WithHealthInterval(d time.Duration) Option {
	return func(m *Manager) { m.healthInterval = d }
}

// WithReconnectDelay sets the delay before a scheduled reconnect attempt.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) { m.reconnectDelay = d }
}

// WithPingTimeout bounds each health-check ping.
func WithPingTimeout(d time.Duration) Option {
	return func(m *Manager) { m.pingTimeout = d }
}

// New creates a Manager. Timing defaults come from the environment
// (TOOLMUX_HEALTH_INTERVAL, TOOLMUX_RECONNECT_DELAY) when not overridden
// by options.
func New(opts ...Option) *Manager {
	m := &Manager{
		states:         make(map[string]*backendState),
		retries:        make(map[string]*time.Timer),
		dial:           NewMCPDialer(),
		logger:         logging.Default(),
		recorder:       nopRecorder{},
		healthInterval: durationFromEnv(HealthIntervalEnvVar, DefaultHealthInterval),
		reconnectDelay: durationFromEnv(ReconnectDelayEnvVar, DefaultReconnectDelay),
		pingTimeout:    DefaultPingTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize registers every descriptor and opens a session to each enabled
// one. A backend that fails to open is registered as disconnected with a
// scheduled retry; partial availability is expected and never aborts the
// remaining backends. An empty registry is a valid, queryable state.
func (m *Manager) Initialize(ctx context.Context, descriptors []config.BackendConfig) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return ErrShutdown
	}
	var toOpen []string
	for _, d := range descriptors {
		if d.Name == "" {
			m.logger.Warn("ignoring backend descriptor without a name")
			continue
		}
		if _, exists := m.states[d.Name]; exists {
			m.logger.Warn("duplicate backend descriptor ignored", "backend", d.Name)
			continue
		}
		m.states[d.Name] = &backendState{config: d, state: StateConfigured}
		if d.Enabled() {
			toOpen = append(toOpen, d.Name)
		}
	}
	m.mu.Unlock()

	for _, name := range toOpen {
		if err := m.open(ctx, name); err != nil {
			m.logger.Warn("failed to connect to backend", "backend", name, "error", err)
			m.ScheduleRetry(name)
		}
	}

	m.startHealthMonitor()
	return nil
}

// open dials and establishes a session for a registered backend. The
// registry lock is released for the duration of the dial.
func (m *Manager) open(ctx context.Context, name string) error {
	m.mu.Lock()
	st, ok := m.states[name]
	if !ok {
		m.mu.Unlock()
		return &BackendNotFoundError{Name: name}
	}
	if m.shutdown {
		m.mu.Unlock()
		return ErrShutdown
	}
	if st.state == StateConnected || st.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	if !st.config.Enabled() {
		m.mu.Unlock()
		return nil
	}
	st.state = StateConnecting
	cfg := st.config
	m.mu.Unlock()

	conn := m.dial(cfg)
	openCtx, cancel := context.WithTimeout(ctx, GetConnectionTimeout(cfg))
	tools, err := conn.Open(openCtx)
	cancel()

	m.mu.Lock()
	st, ok = m.states[name]
	if !ok || m.shutdown {
		m.mu.Unlock()
		// Removed or shut down while the dial was in flight.
		if err == nil {
			_ = conn.Close()
		}
		return ErrShutdown
	}
	if err != nil {
		st.state = StateDisconnected
		st.lastError = err
		m.mu.Unlock()
		return err
	}

	st.conn = conn
	st.state = StateConnected
	st.tools = tools
	st.lastContact = time.Now()
	st.lastError = nil
	m.mu.Unlock()
	return nil
}

// markContact records fresh evidence of liveness for a connected backend.
func (m *Manager) markContact(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[name]; ok && st.state == StateConnected {
		st.lastContact = time.Now()
	}
}

// IsConnected reports whether the backend is currently connected.
func (m *Manager) IsConnected(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[name]
	return ok && st.state == StateConnected
}

// Snapshot returns read-only copies of all registry entries, sorted by
// backend name.
func (m *Manager) Snapshot() []BackendStatus {
	pending := make(map[string]bool)
	for _, name := range m.PendingRetries() {
		pending[name] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]BackendStatus, 0, len(m.states))
	for name, st := range m.states {
		status := BackendStatus{
			Name:         name,
			Type:         st.config.Type,
			State:        st.state,
			Connected:    st.state == StateConnected,
			ToolCount:    len(st.tools),
			LastContact:  st.lastContact,
			Source:       st.config.Source.String(),
			RetryPending: pending[name],
		}
		if st.lastError != nil {
			status.Error = st.lastError.Error()
		}
		result = append(result, status)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Disconnect tears down and removes a backend entry. Idempotent: removing
// an unknown name is not an error.
func (m *Manager) Disconnect(name string) error {
	m.cancelRetry(name)

	m.mu.Lock()
	st, ok := m.states[name]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	conn := st.conn
	delete(m.states, name)
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("error closing backend %s: %w", name, err)
	}
	return nil
}

// ShutdownAll drains everything: pending retry timers, the health monitor,
// and every live connection. Close errors are collected and logged, not
// propagated. When it returns there is no more background activity.
// Calling it again is a no-op.
func (m *Manager) ShutdownAll() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.CancelAll()
	m.retryWG.Wait()

	if started {
		close(m.healthStop)
		<-m.healthDone
	}

	m.mu.Lock()
	type closing struct {
		name string
		conn Conn
	}
	conns := make([]closing, 0, len(m.states))
	for name, st := range m.states {
		if st.conn != nil {
			conns = append(conns, closing{name, st.conn})
		}
	}
	m.states = make(map[string]*backendState)
	m.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("errors closing backends during shutdown", "error", err)
	}

	// Demotions close dead sessions asynchronously; wait for any still in
	// flight so no goroutine outlives the shutdown.
	m.closeWG.Wait()
	return nil
}

func (m *Manager) namesLocked() []string {
	names := make([]string, 0, len(m.states))
	for name := range m.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toolNames(tools []ToolInfo) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func hasTool(tools []ToolInfo, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
