package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given analysis root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (XREFGRAPH_*)
// 2. Config file (.xrefgraph/config.yml under the analysis root)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".xrefgraph")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("XREFGRAPH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("compiler.command")
	v.BindEnv("render.dot")
	v.BindEnv("render.graph_name")
	v.BindEnv("render.output")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is acceptable: defaults + env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("compiler.command", defaults.Compiler.Command)

	v.SetDefault("render.dot", defaults.Render.Dot)
	v.SetDefault("render.graph_name", defaults.Render.GraphName)
	v.SetDefault("render.output", defaults.Render.Output)

	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
}
