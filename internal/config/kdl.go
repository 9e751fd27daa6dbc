package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	kdl "github.com/sblinch/kdl-go"
)

const (
	ProjectConfigFile = ".toolmux.kdl"
	LocalConfigFile   = ".toolmux.local.kdl"
	UserConfigDir     = "toolmux"
	UserConfigFile    = "config.kdl"
)

// KDLConfig is the raw KDL structure for unmarshaling.
type KDLConfig struct {
	Backends []KDLBackendConfig `kdl:"backend,multiple"`
}

// KDLBackendConfig represents a backend node in KDL.
type KDLBackendConfig struct {
	Name        string            `kdl:",arg"`
	Type        string            `kdl:"type"`
	Command     string            `kdl:"command"`
	Args        []string          `kdl:"args"`
	Env         map[string]string `kdl:"env"`
	URL         string            `kdl:"url"`
	Headers     map[string]string `kdl:"headers"`
	Timeout     string            `kdl:"timeout"`
	Disabled    bool              `kdl:"disabled"`
	BearerToken string            `kdl:"bearer-token"`
	OAuth       *KDLOAuthConfig   `kdl:"oauth"`
}

// KDLOAuthConfig represents an oauth child node in KDL.
type KDLOAuthConfig struct {
	TokenURL     string   `kdl:"token-url"`
	ClientID     string   `kdl:"client-id"`
	ClientSecret string   `kdl:"client-secret"`
	Scopes       []string `kdl:"scopes"`
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, UserConfigDir, UserConfigFile)
}

// LocalConfigPath returns the path to the local config file (project-specific, not shared).
func LocalConfigPath(dir string) string {
	return filepath.Join(dir, LocalConfigFile)
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigFile)
}

// ConfigPathForScope returns the config path for a given scope.
func ConfigPathForScope(scope Scope, projectDir string) string {
	switch scope {
	case ScopeLocal:
		return LocalConfigPath(projectDir)
	case ScopeProject:
		return ProjectConfigPath(projectDir)
	case ScopeUser:
		return UserConfigPath()
	default:
		return ProjectConfigPath(projectDir)
	}
}

// LoadUserConfig loads configuration from the user config file.
func LoadUserConfig() (*Config, error) {
	path := UserConfigPath()
	if path == "" {
		return NewConfig(), nil
	}
	return loadConfigFile(path, SourceUser)
}

// LoadProjectConfig loads configuration from the project config file.
func LoadProjectConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ProjectConfigFile)
	return loadConfigFile(path, SourceProject)
}

// LoadLocalConfig loads configuration from the local config file.
func LoadLocalConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, LocalConfigFile)
	return loadConfigFile(path, SourceLocal)
}

// GetBackend returns a specific backend config from a file.
// Handles both KDL and JSON (mcpServers) configs.
func GetBackend(path, name string) (*BackendConfig, error) {
	cfg, err := loadConfigFile(path, SourceProject)
	if err == nil {
		if b, ok := cfg.Backends[name]; ok {
			b.Name = name
			return &b, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	var jsonCfg JSONConfig
	if err := json.Unmarshal(data, &jsonCfg); err != nil {
		return nil, nil
	}

	if jb, ok := jsonCfg.Backends[name]; ok {
		return &BackendConfig{
			Name:     name,
			Type:     jb.Type,
			Command:  jb.Command,
			Args:     jb.Args,
			Env:      jb.Env,
			URL:      jb.URL,
			Headers:  jb.Headers,
			Timeout:  jb.Timeout,
			Disabled: jb.Disabled,
		}, nil
	}

	return nil, nil
}

// ConfigPaths returns all relevant config file paths.
func ConfigPaths(projectDir string) map[string]string {
	return map[string]string{
		"user":    UserConfigPath(),
		"project": ProjectConfigPath(projectDir),
		"local":   LocalConfigPath(projectDir),
	}
}

func loadConfigFile(path string, source Source) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	return ParseKDLConfig(string(data), source)
}

// ParseKDLConfig parses KDL configuration data.
func ParseKDLConfig(data string, source Source) (*Config, error) {
	var kdlCfg KDLConfig
	if err := kdl.Unmarshal([]byte(data), &kdlCfg); err != nil {
		return nil, err
	}

	cfg := NewConfig()
	for _, b := range kdlCfg.Backends {
		backend := BackendConfig{
			Name:        b.Name,
			Type:        b.Type,
			Command:     b.Command,
			Args:        b.Args,
			Env:         b.Env,
			URL:         b.URL,
			Headers:     b.Headers,
			Timeout:     b.Timeout,
			Disabled:    b.Disabled,
			BearerToken: b.BearerToken,
			Source:      source,
		}
		if b.OAuth != nil {
			backend.OAuth = &OAuthConfig{
				TokenURL:     b.OAuth.TokenURL,
				ClientID:     b.OAuth.ClientID,
				ClientSecret: b.OAuth.ClientSecret,
				Scopes:       b.OAuth.Scopes,
			}
		}
		cfg.Backends[b.Name] = backend
	}

	return cfg, nil
}

// AddBackendToFile adds a stdio backend configuration to a KDL file.
func AddBackendToFile(path, name, command string, args []string) error {
	return AddBackendConfigToFile(path, BackendConfig{
		Name:    name,
		Type:    "stdio",
		Command: command,
		Args:    args,
	})
}

// AddBackendConfigToFile adds a full backend configuration to a KDL file.
func AddBackendConfigToFile(path string, backend BackendConfig) error {
	cfg, err := loadConfigFile(path, SourceProject)
	if err != nil {
		return err
	}

	if backend.Type == "" {
		backend.Type = "stdio"
	}

	cfg.Backends[backend.Name] = backend

	return WriteConfigFile(path, cfg)
}

// RemoveBackendFromFile removes a backend configuration from a KDL file.
func RemoveBackendFromFile(path, name string) error {
	cfg, err := loadConfigFile(path, SourceProject)
	if err != nil {
		return err
	}

	delete(cfg.Backends, name)
	return WriteConfigFile(path, cfg)
}

// WriteConfigFile writes a config to a KDL file.
func WriteConfigFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var content string
	for _, backend := range cfg.Backends {
		content += formatBackendBlock(backend)
	}

	return os.WriteFile(path, []byte(content), 0644)
}

func formatBackendBlock(backend BackendConfig) string {
	result := "backend \"" + backend.Name + "\" {\n"

	if backend.Type != "" {
		result += "    type \"" + backend.Type + "\"\n"
	} else {
		result += "    type \"stdio\"\n"
	}

	if backend.Command != "" {
		result += "    command \"" + backend.Command + "\"\n"
	}

	if len(backend.Args) > 0 {
		result += "    args"
		for _, arg := range backend.Args {
			result += " \"" + arg + "\""
		}
		result += "\n"
	}

	if backend.URL != "" {
		result += "    url \"" + backend.URL + "\"\n"
	}

	if backend.Timeout != "" {
		result += "    timeout \"" + backend.Timeout + "\"\n"
	}

	if backend.Disabled {
		result += "    disabled true\n"
	}

	if backend.BearerToken != "" {
		result += "    bearer-token \"" + backend.BearerToken + "\"\n"
	}

	if len(backend.Env) > 0 {
		result += "    env {\n"
		for k, v := range backend.Env {
			result += "        " + k + " \"" + v + "\"\n"
		}
		result += "    }\n"
	}

	if len(backend.Headers) > 0 {
		result += "    headers {\n"
		for k, v := range backend.Headers {
			result += "        " + k + " \"" + v + "\"\n"
		}
		result += "    }\n"
	}

	if backend.OAuth != nil {
		result += "    oauth {\n"
		result += "        token-url \"" + backend.OAuth.TokenURL + "\"\n"
		result += "        client-id \"" + backend.OAuth.ClientID + "\"\n"
		if backend.OAuth.ClientSecret != "" {
			result += "        client-secret \"" + backend.OAuth.ClientSecret + "\"\n"
		}
		if len(backend.OAuth.Scopes) > 0 {
			result += "        scopes"
			for _, s := range backend.OAuth.Scopes {
				result += " \"" + s + "\""
			}
			result += "\n"
		}
		result += "    }\n"
	}

	result += "}\n\n"
	return result
}
