package manager

import (
	"context"
	"fmt"
	"time"
)

// startHealthMonitor launches the background health loop once.
func (m *Manager) startHealthMonitor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.shutdown {
		return
	}
	m.started = true
	m.healthStop = make(chan struct{})
	m.healthDone = make(chan struct{})
	go m.healthLoop()
}

func (m *Manager) healthLoop() {
	defer close(m.healthDone)

	ticker := time.NewTicker(m.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.healthStop:
			return
		case <-ticker.C:
			m.checkBackends()
		}
	}
}

// checkBackends pings every connected backend. A failed ping, or a last
// successful contact older than twice the check interval, demotes the
// backend to disconnected and hands it to the retry scheduler. Entries are
// never removed here; liveness and existence are separate.
func (m *Manager) checkBackends() {
	type probe struct {
		name string
		conn Conn
		last time.Time
	}

	m.mu.RLock()
	probes := make([]probe, 0, len(m.states))
	for name, st := range m.states {
		if st.state == StateConnected && st.conn != nil {
			probes = append(probes, probe{name: name, conn: st.conn, last: st.lastContact})
		}
	}
	m.mu.RUnlock()

	stale := 2 * m.healthInterval
	for _, p := range probes {
		if !p.last.IsZero() && time.Since(p.last) > stale {
			m.recorder.ObservePing(p.name, false)
			m.demote(p.name, fmt.Errorf("no successful contact in %s", time.Since(p.last).Round(time.Millisecond)))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.pingTimeout)
		err := p.conn.Ping(ctx)
		cancel()

		if err != nil {
			m.recorder.ObservePing(p.name, false)
			m.demote(p.name, err)
			continue
		}

		m.recorder.ObservePing(p.name, true)
		m.markContact(p.name)
	}
}

// demote flips a connected backend to disconnected and schedules a
// reconnect attempt. The registry entry survives so callers can keep
// querying the last known tool inventory.
func (m *Manager) demote(name string, cause error) {
	m.mu.Lock()
	st, ok := m.states[name]
	if !ok || st.state != StateConnected {
		m.mu.Unlock()
		return
	}
	conn := st.conn
	st.conn = nil
	st.state = StateDisconnected
	st.lastError = cause
	enabled := st.config.Enabled()
	m.mu.Unlock()

	m.logger.Warn("backend unresponsive, marking disconnected", "backend", name, "error", cause)

	if conn != nil {
		// Best effort; the session may already be dead. ShutdownAll waits
		// on closeWG before returning.
		m.closeWG.Add(1)
		go func() {
			defer m.closeWG.Done()
			_ = conn.Close()
		}()
	}
	if enabled {
		m.ScheduleRetry(name)
	}
}
