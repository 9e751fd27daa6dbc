package manager

import (
	"context"
)

// CallTool routes a tool invocation to the named backend. It fails fast
// with BackendNotFoundError for unknown names, BackendUnavailableError for
// known-but-disconnected backends, and ToolNotFoundError for tools the
// backend does not advertise. A call the backend accepted but failed is
// returned as the ToolResult plus an InvocationError.
func (m *Manager) CallTool(ctx context.Context, backend, tool string, args map[string]any) (*ToolResult, error) {
	m.mu.RLock()
	st, ok := m.states[backend]
	if !ok {
		available := m.namesLocked()
		m.mu.RUnlock()
		return nil, &BackendNotFoundError{Name: backend, AvailableBackends: available}
	}
	if st.state != StateConnected || st.conn == nil {
		state := st.state
		m.mu.RUnlock()
		return nil, &BackendUnavailableError{Name: backend, State: state}
	}
	if !hasTool(st.tools, tool) {
		available := toolNames(st.tools)
		m.mu.RUnlock()
		return nil, &ToolNotFoundError{Backend: backend, Tool: tool, AvailableTools: available}
	}
	conn := st.conn
	cfg := st.config
	m.mu.RUnlock()

	// The registry lock is not held across the remote call; a slow backend
	// must not block dispatch to the others.
	callCtx, cancel := context.WithTimeout(ctx, GetConnectionTimeout(cfg))
	defer cancel()

	m.recorder.ObserveToolCall(backend, tool)
	result, err := conn.Invoke(callCtx, tool, args)
	if err != nil {
		m.recorder.ObserveToolCallError(backend, tool)
		return nil, err
	}

	// Any answered call is evidence of liveness, independent of the health
	// monitor's own ping cycle.
	m.markContact(backend)

	if !result.Success {
		m.recorder.ObserveToolCallError(backend, tool)
		return result, &InvocationError{Backend: backend, Tool: tool, Detail: result.Err}
	}
	return result, nil
}

// ListTools returns the cached tool names for a connected backend. The
// list reflects the last Open; tool directories are assumed backend-static
// between reconnects.
func (m *Manager) ListTools(backend string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[backend]
	if !ok {
		return nil, &BackendNotFoundError{Name: backend, AvailableBackends: m.namesLocked()}
	}
	if st.state != StateConnected {
		return nil, &BackendUnavailableError{Name: backend, State: st.state}
	}
	return toolNames(st.tools), nil
}

// Tools returns the cached tool metadata for a connected backend.
func (m *Manager) Tools(backend string) ([]ToolInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[backend]
	if !ok {
		return nil, &BackendNotFoundError{Name: backend, AvailableBackends: m.namesLocked()}
	}
	if st.state != StateConnected {
		return nil, &BackendUnavailableError{Name: backend, State: st.state}
	}
	tools := make([]ToolInfo, len(st.tools))
	copy(tools, st.tools)
	return tools, nil
}

// ListAllTools returns tool names per connected backend. Disconnected
// backends are skipped, not failed; partial results are the expected
// behavior.
func (m *Manager) ListAllTools() (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]string)
	for name, st := range m.states {
		if st.state != StateConnected {
			continue
		}
		result[name] = toolNames(st.tools)
	}
	return result, nil
}

// GetHealth returns the per-backend health view. It reads a consistent
// snapshot and never mutates state.
func (m *Manager) GetHealth() map[string]HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]HealthStatus, len(m.states))
	for name, st := range m.states {
		status := HealthUnhealthy
		if st.state == StateConnected {
			status = HealthHealthy
		}
		result[name] = HealthStatus{
			Status:      status,
			LastContact: st.lastContact,
			ToolCount:   len(st.tools),
		}
	}
	return result
}

// GetMetrics aggregates registry state into counts.
func (m *Manager) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := Metrics{TotalBackends: len(m.states)}
	for _, st := range m.states {
		if st.state == StateConnected {
			metrics.ConnectedBackends++
			metrics.TotalTools += len(st.tools)
		}
	}
	return metrics
}
