package manager

import (
	"fmt"
	"strings"
)

// BackendNotFoundError is returned when a backend name is not registered.
// This is a caller configuration error and is never retried internally.
type BackendNotFoundError struct {
	Name              string
	AvailableBackends []string
}

func (e *BackendNotFoundError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("backend not found: %s\n\n", e.Name))

	if len(e.AvailableBackends) > 0 {
		sb.WriteString("Available backends:\n")
		for _, name := range e.AvailableBackends {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Fix:\n")
	sb.WriteString("1. Check the backend name spelling\n")
	sb.WriteString("2. Add it to config: .toolmux.kdl or ~/.config/toolmux/config.kdl\n")

	return sb.String()
}

// BackendUnavailableError is returned when a backend is registered but
// currently disconnected. The caller may retry later or wait for the
// reconnection scheduler to recover the session.
type BackendUnavailableError struct {
	Name  string
	State BackendState
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s is not connected (state: %s); it will be retried automatically", e.Name, e.State)
}

// ToolNotFoundError is returned when a connected backend does not advertise
// the requested tool.
type ToolNotFoundError struct {
	Backend        string
	Tool           string
	AvailableTools []string
}

func (e *ToolNotFoundError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("tool '%s' not found on backend '%s'\n\n", e.Tool, e.Backend))

	if len(e.AvailableTools) > 0 {
		sb.WriteString("Available tools:\n")
		for _, name := range e.AvailableTools {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	return sb.String()
}

// InvocationError is returned when the backend accepted a tool call but
// reported a failure. The detail comes from the backend; the manager does
// not retry these.
type InvocationError struct {
	Backend string
	Tool    string
	Detail  string
}

func (e *InvocationError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "tool returned error"
	}
	return fmt.Sprintf("tool '%s' on backend '%s' failed: %s", e.Tool, e.Backend, detail)
}
