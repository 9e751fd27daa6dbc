package manager

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/toolmux/internal/config"
)

func TestBuildTransportStdio(t *testing.T) {
	cfg := config.BackendConfig{
		Name:    "files",
		Type:    "stdio",
		Command: "mcp-files",
		Args:    []string{"--root", "/tmp"},
	}

	transport, err := buildTransport(cfg)
	require.NoError(t, err)
	ct, ok := transport.(*mcp.CommandTransport)
	require.True(t, ok)
	assert.Contains(t, ct.Command.Args, "--root")
}

func TestBuildTransportDefaultsToStdio(t *testing.T) {
	cfg := config.BackendConfig{Name: "files", Command: "mcp-files"}

	transport, err := buildTransport(cfg)
	require.NoError(t, err)
	_, ok := transport.(*mcp.CommandTransport)
	assert.True(t, ok)
}

func TestBuildTransportStdioRequiresCommand(t *testing.T) {
	cfg := config.BackendConfig{Name: "files", Type: "stdio"}

	_, err := buildTransport(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command missing")
}

func TestBuildTransportSSE(t *testing.T) {
	cfg := config.BackendConfig{
		Name: "remote",
		Type: "sse",
		URL:  "https://tools.example.com/sse",
	}

	transport, err := buildTransport(cfg)
	require.NoError(t, err)
	st, ok := transport.(*mcp.SSEClientTransport)
	require.True(t, ok)
	assert.Equal(t, "https://tools.example.com/sse", st.Endpoint)
}

func TestBuildTransportStreamableHTTP(t *testing.T) {
	for _, typ := range []string{"streamable", "http"} {
		cfg := config.BackendConfig{
			Name: "remote",
			Type: typ,
			URL:  "https://tools.example.com/mcp",
		}

		transport, err := buildTransport(cfg)
		require.NoError(t, err)
		st, ok := transport.(*mcp.StreamableClientTransport)
		require.True(t, ok)
		assert.Equal(t, "https://tools.example.com/mcp", st.Endpoint)
	}
}

func TestBuildTransportHTTPRequiresURL(t *testing.T) {
	for _, typ := range []string{"sse", "streamable", "http"} {
		cfg := config.BackendConfig{Name: "remote", Type: typ}

		_, err := buildTransport(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "url missing")
	}
}

func TestBuildTransportUnknownType(t *testing.T) {
	cfg := config.BackendConfig{Name: "weird", Type: "carrier-pigeon"}

	_, err := buildTransport(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend transport type")
}

func TestContentToAnyStructuredWins(t *testing.T) {
	result := &mcp.CallToolResult{
		StructuredContent: map[string]any{"count": 3},
		Content:           []mcp.Content{&mcp.TextContent{Text: "ignored"}},
	}
	assert.Equal(t, map[string]any{"count": 3}, contentToAny(result))
}

func TestContentToAnySingleText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "hello"}},
	}
	assert.Equal(t, "hello", contentToAny(result))
}

func TestContentToAnyMixedItems(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "caption"},
			&mcp.ImageContent{MIMEType: "image/png", Data: []byte{1, 2, 3}},
		},
	}

	items, ok := contentToAny(result).([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "caption", items[0])

	img, ok := items[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image", img["type"])
	assert.Equal(t, "image/png", img["mimeType"])
}

func TestContentToAnyEmpty(t *testing.T) {
	assert.Nil(t, contentToAny(&mcp.CallToolResult{}))
}

// echoServer runs an in-memory MCP server with a single echo tool. The
// returned session is connected to it; cleanup tears both ends down.
func echoServer(t *testing.T) *session {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "echo-server",
		Version: "0.0.1",
	}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "Echo the input back as text",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "ok"}},
		}, nil
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverCtx, stopServer := context.WithCancel(context.Background())
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		_ = server.Run(serverCtx, serverTransport)
	}()
	t.Cleanup(func() {
		stopServer()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}, nil)
	sess, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)

	s := &session{cfg: config.BackendConfig{Name: "echo"}}
	s.sess = sess
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionInvoke(t *testing.T) {
	s := echoServer(t)

	result, err := s.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ok", result.Message)
}

// Close can race with in-flight calls: the manager tears down sessions from
// health demotion and shutdown while a dispatched call may still hold the
// same Conn. Calls that lose the race must fail with an error, not crash.
func TestSessionCloseDuringInvoke(t *testing.T) {
	s := echoServer(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = s.Invoke(context.Background(), "echo", nil)
			_ = s.Ping(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		_ = s.Close()
	}()
	wg.Wait()

	// Once closed the session stays closed.
	assert.NoError(t, s.Close())
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not open")
}
