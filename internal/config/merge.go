package config

// Merge combines user and project configs.
// Project config takes precedence over user config for the same backend name.
func Merge(user, project *Config) *Config {
	merged := NewConfig()

	if user != nil {
		for name, cfg := range user.Backends {
			merged.Backends[name] = cfg
		}
	}

	if project != nil {
		for name, cfg := range project.Backends {
			merged.Backends[name] = cfg
		}
	}

	return merged
}

// Load loads and merges user and project configs.
func Load(projectDir string) (*Config, error) {
	user, err := LoadUserConfig()
	if err != nil {
		return nil, err
	}

	project, err := LoadProjectConfig(projectDir)
	if err != nil {
		return nil, err
	}

	return Merge(user, project), nil
}
