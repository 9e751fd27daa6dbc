package manager

import (
	"context"
	"sort"
	"time"
)

// ScheduleRetry schedules a one-shot reconnect attempt for a disconnected,
// still-enabled backend after the configured delay. No-op when a retry is
// already pending for the name, so consecutive health-check failures never
// pile up timers.
func (m *Manager) ScheduleRetry(name string) {
	m.retryMu.Lock()
	defer m.retryMu.Unlock()

	if _, ok := m.retries[name]; ok {
		return
	}

	m.mu.RLock()
	st, exists := m.states[name]
	down := m.shutdown
	enabled := exists && st.config.Enabled()
	m.mu.RUnlock()
	if down || !enabled {
		return
	}

	m.retryWG.Add(1)
	m.retries[name] = time.AfterFunc(m.reconnectDelay, func() {
		defer m.retryWG.Done()
		m.retryFire(name)
	})
}

// retryFire runs when a retry timer elapses. On failure the pending entry
// is dropped without rescheduling; the next failed health cycle (or an
// explicit ScheduleRetry) is what arms another attempt, so a dead backend
// never produces a tight retry loop.
func (m *Manager) retryFire(name string) {
	m.recorder.ObserveReconnectAttempt(name)

	err := m.open(context.Background(), name)

	m.retryMu.Lock()
	delete(m.retries, name)
	m.retryMu.Unlock()

	if err != nil {
		m.logger.Warn("reconnect attempt failed", "backend", name, "error", err)
		return
	}
	m.logger.Info("backend reconnected", "backend", name)
}

func (m *Manager) cancelRetry(name string) {
	m.retryMu.Lock()
	defer m.retryMu.Unlock()
	if t, ok := m.retries[name]; ok {
		if t.Stop() {
			m.retryWG.Done()
		}
		delete(m.retries, name)
	}
}

// CancelAll stops every pending retry timer. Used during shutdown so no
// reconnect fires against a torn-down registry.
func (m *Manager) CancelAll() {
	m.retryMu.Lock()
	defer m.retryMu.Unlock()
	for name, t := range m.retries {
		if t.Stop() {
			m.retryWG.Done()
		}
		delete(m.retries, name)
	}
}

// PendingRetries returns the backends with a scheduled reconnect attempt,
// sorted by name.
func (m *Manager) PendingRetries() []string {
	m.retryMu.Lock()
	defer m.retryMu.Unlock()
	names := make([]string, 0, len(m.retries))
	for name := range m.retries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
