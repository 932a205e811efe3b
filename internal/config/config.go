// Package config holds checker-wide constants and the lume.yaml
// configuration surface. Everything here is plain data: the checker reads a
// Config once at construction and never mutates it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls checker behavior that is deliberately not hard-coded.
type Config struct {
	// Strict forbids unhandled effects at the top of a module, IO
	// included. Without it IO escapes freely because the runtime
	// provides it.
	Strict bool `yaml:"strict,omitempty"`

	// MaxUnifyDepth bounds recursion inside the unifier. Recursive types are
	// compared coinductively, so the guard only trips on pathological input.
	MaxUnifyDepth int `yaml:"max_unify_depth,omitempty"`

	// NoGeneralize turns off let-generalization entirely (every binding is
	// monomorphic). Useful for debugging inference.
	NoGeneralize bool `yaml:"no_generalize,omitempty"`

	// WarnUnusedLets reports let bindings whose name is never referenced.
	WarnUnusedLets bool `yaml:"warn_unused_lets,omitempty"`

	// LogLevel selects checker logging verbosity: "debug", "info", "warn".
	LogLevel string `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when no lume.yaml is present.
func Default() *Config {
	return &Config{
		Strict:         false,
		MaxUnifyDepth:  512,
		WarnUnusedLets: true,
		LogLevel:       "warn",
	}
}

// Load reads and parses a lume.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses lume.yaml content from bytes. The path argument is used only
// for error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	if c.MaxUnifyDepth <= 0 {
		return fmt.Errorf("%s: max_unify_depth must be positive, got %d", path, c.MaxUnifyDepth)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: unknown log_level %q", path, c.LogLevel)
	}
	return nil
}
