package manager

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/toolmux/internal/auth"
	"github.com/standardbeagle/toolmux/internal/config"
)

const (
	clientName    = "toolmux"
	clientVersion = "0.1.0"
)

// session implements Conn over an MCP client session. It supports stdio,
// SSE, and streamable HTTP transports.
//
// The manager releases its registry lock while a call is in flight, so
// Close can race with Ping or Invoke. The mutex guards the sess pointer;
// callers snapshot it and a closed *mcp.ClientSession returns errors for
// any call that slipped past Close.
type session struct {
	cfg config.BackendConfig

	mu   sync.Mutex
	sess *mcp.ClientSession
}

func (s *session) current() *mcp.ClientSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// NewMCPDialer returns the Dialer used for real backends.
func NewMCPDialer() Dialer {
	return func(cfg config.BackendConfig) Conn {
		return &session{cfg: cfg}
	}
}

func (s *session) Open(ctx context.Context) ([]ToolInfo, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}, nil)

	transport, err := buildTransport(s.cfg)
	if err != nil {
		return nil, err
	}

	sess, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to backend %s: %w", s.cfg.Name, err)
	}

	// The tool directory is captured once per session; reconnects refresh it.
	result, err := sess.ListTools(ctx, nil)
	if err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("failed to list tools for backend %s: %w", s.cfg.Name, err)
	}

	tools := make([]ToolInfo, 0, len(result.Tools))
	for _, tool := range result.Tools {
		tools = append(tools, ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}

	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()
	return tools, nil
}

func (s *session) Ping(ctx context.Context) error {
	sess := s.current()
	if sess == nil {
		return fmt.Errorf("backend %s: session not open", s.cfg.Name)
	}
	return sess.Ping(ctx, nil)
}

func (s *session) Invoke(ctx context.Context, tool string, args map[string]any) (*ToolResult, error) {
	sess := s.current()
	if sess == nil {
		return nil, fmt.Errorf("backend %s: session not open", s.cfg.Name)
	}

	result, err := sess.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	if result.IsError {
		var errMsg string
		for _, content := range result.Content {
			if text, ok := content.(*mcp.TextContent); ok {
				errMsg += text.Text
			}
		}
		if errMsg == "" {
			errMsg = "tool returned error"
		}
		return &ToolResult{Success: false, Err: errMsg}, nil
	}

	res := &ToolResult{Success: true, Data: contentToAny(result)}
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			res.Message = text.Text
			break
		}
	}
	return res, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	return sess.Close()
}

func buildTransport(cfg config.BackendConfig) (mcp.Transport, error) {
	switch cfg.Type {
	case "stdio", "command", "":
		if cfg.Command == "" {
			return nil, fmt.Errorf("backend %s: command missing", cfg.Name)
		}
		cmd := exec.Command(cfg.Command, cfg.Args...)
		if len(cfg.Env) > 0 {
			env := os.Environ()
			for k, v := range cfg.Env {
				env = append(env, k+"="+v)
			}
			cmd.Env = env
		}
		return &mcp.CommandTransport{Command: cmd}, nil

	case "sse":
		if cfg.URL == "" {
			return nil, fmt.Errorf("backend %s: url missing", cfg.Name)
		}
		return &mcp.SSEClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: auth.HTTPClient(cfg),
		}, nil

	case "streamable", "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("backend %s: url missing", cfg.Name)
		}
		return &mcp.StreamableClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: auth.HTTPClient(cfg),
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend transport type: %s", cfg.Type)
	}
}

func contentToAny(result *mcp.CallToolResult) any {
	if result.StructuredContent != nil {
		return result.StructuredContent
	}

	if len(result.Content) == 0 {
		return nil
	}

	if len(result.Content) == 1 {
		return contentItemToAny(result.Content[0])
	}

	items := make([]any, 0, len(result.Content))
	for _, c := range result.Content {
		items = append(items, contentItemToAny(c))
	}
	return items
}

func contentItemToAny(content mcp.Content) any {
	switch c := content.(type) {
	case *mcp.TextContent:
		return c.Text
	case *mcp.ImageContent:
		return map[string]any{
			"type":     "image",
			"mimeType": c.MIMEType,
			"data":     c.Data,
		}
	case *mcp.AudioContent:
		return map[string]any{
			"type":     "audio",
			"mimeType": c.MIMEType,
			"data":     c.Data,
		}
	default:
		return fmt.Sprintf("%v", content)
	}
}
