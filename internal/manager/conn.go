package manager

import (
	"context"

	"github.com/standardbeagle/toolmux/internal/config"
)

// ToolInfo describes a tool advertised by a backend.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// ToolResult is the outcome of a single tool invocation. It is created
// fresh per call and owned by the caller.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Conn is one logical session to a backend. The manager's logic does not
// depend on the concrete transport behind it.
//
// The tool directory returned by Open is assumed backend-static for the
// lifetime of the session; it is refreshed only by the next Open after a
// reconnect, never re-verified per call.
type Conn interface {
	// Open establishes the session and returns the advertised tools.
	Open(ctx context.Context) ([]ToolInfo, error)

	// Ping verifies the session is still responsive.
	Ping(ctx context.Context) error

	// Invoke executes a named tool. A transport failure is returned as an
	// error; a failure reported by the backend itself is returned as a
	// ToolResult with Success false.
	Invoke(ctx context.Context, tool string, args map[string]any) (*ToolResult, error)

	// Close tears down the session.
	Close() error
}

// Dialer produces an unopened Conn for a backend descriptor.
type Dialer func(cfg config.BackendConfig) Conn
