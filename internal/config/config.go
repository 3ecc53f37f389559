// Package config loads xrefgraph configuration with the usual precedence:
// defaults, then .xrefgraph/config.yml, then XREFGRAPH_* environment
// variables.
package config

import "fmt"

// Config is the complete tool configuration.
type Config struct {
	Compiler CompilerConfig `yaml:"compiler" mapstructure:"compiler"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
}

// CompilerConfig configures the external compiler invocation.
type CompilerConfig struct {
	Command string `yaml:"command" mapstructure:"command"` // compiler executable, e.g. "erlc"
}

// RenderConfig configures graph output.
type RenderConfig struct {
	Dot       string `yaml:"dot" mapstructure:"dot"`               // graph layout executable
	GraphName string `yaml:"graph_name" mapstructure:"graph_name"` // digraph name in the output
	Output    string `yaml:"output" mapstructure:"output"`         // graph description file path
}

// PathsConfig defines extra file discovery exclusions. Test files are
// always excluded; the module-level ignore set is compiled in and not
// configurable here.
type PathsConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to skip
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Command: "erlc",
		},
		Render: RenderConfig{
			Dot:       "dot",
			GraphName: "deps",
			Output:    "deps.dot",
		},
		Paths: PathsConfig{
			Ignore: []string{
				"_build/**",
				"deps/**",
				".git/**",
			},
		},
	}
}

// Validate checks a loaded configuration.
func Validate(cfg *Config) error {
	if cfg.Compiler.Command == "" {
		return fmt.Errorf("compiler.command must not be empty")
	}
	if cfg.Render.Dot == "" {
		return fmt.Errorf("render.dot must not be empty")
	}
	if cfg.Render.GraphName == "" {
		return fmt.Errorf("render.graph_name must not be empty")
	}
	if cfg.Render.Output == "" {
		return fmt.Errorf("render.output must not be empty")
	}
	return nil
}
