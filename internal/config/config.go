package config

import "encoding/json"

// Config represents the merged backend descriptor table from user and
// project sources.
type Config struct {
	Backends map[string]BackendConfig
}

// BackendConfig describes a single tool backend. It is immutable after
// load; the manager reads it but never mutates it.
type BackendConfig struct {
	Name        string            `json:"name,omitempty"`
	Type        string            `json:"type"` // "stdio", "sse", "streamable"
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	URL         string            `json:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Timeout     string            `json:"timeout,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	BearerToken string            `json:"bearer_token,omitempty"`
	OAuth       *OAuthConfig      `json:"oauth,omitempty"`
	Source      Source            `json:"-"`
}

// OAuthConfig holds client-credentials settings for HTTP backends.
type OAuthConfig struct {
	TokenURL     string   `json:"token_url"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

// Enabled reports whether the backend should be dialed.
func (c BackendConfig) Enabled() bool {
	return !c.Disabled
}

// Scope indicates where a config edit should be stored.
type Scope int

const (
	ScopeLocal   Scope = iota // .toolmux.local.kdl, project-specific but not shared
	ScopeProject              // .toolmux.kdl in project root, shared via git
	ScopeUser                 // ~/.config/toolmux/config.kdl, personal cross-project
)

func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeProject:
		return "project"
	case ScopeUser:
		return "user"
	default:
		return "unknown"
	}
}

// ParseScope parses a scope string.
func ParseScope(s string) Scope {
	switch s {
	case "local":
		return ScopeLocal
	case "project":
		return ScopeProject
	case "user":
		return ScopeUser
	default:
		return ScopeProject // default
	}
}

// Source indicates where a backend descriptor came from.
type Source int

const (
	SourceUser Source = iota
	SourceProject
	SourceLocal
	SourceRuntime // Registered at runtime via the manager API
)

func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceProject:
		return "project"
	case SourceLocal:
		return "local"
	case SourceRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// NewConfig creates an empty config.
func NewConfig() *Config {
	return &Config{
		Backends: make(map[string]BackendConfig),
	}
}

// JSONConfig represents the JSON import format for backend descriptors
// (mcpServers-style, as emitted by common MCP clients).
type JSONConfig struct {
	Backends map[string]JSONBackendConfig `json:"mcpServers"`
}

// JSONBackendConfig represents a single backend in JSON format.
type JSONBackendConfig struct {
	Type     string            `json:"type"`
	Command  string            `json:"command,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	URL      string            `json:"url,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Timeout  string            `json:"timeout,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

// ParseJSONConfig parses a JSON backend descriptor string.
func ParseJSONConfig(data string) (*BackendConfig, error) {
	var cfg JSONBackendConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, err
	}

	return &BackendConfig{
		Type:     cfg.Type,
		Command:  cfg.Command,
		Args:     cfg.Args,
		Env:      cfg.Env,
		URL:      cfg.URL,
		Headers:  cfg.Headers,
		Timeout:  cfg.Timeout,
		Disabled: cfg.Disabled,
	}, nil
}

// ToJSON converts a BackendConfig to a JSON string.
func (c *BackendConfig) ToJSON() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
