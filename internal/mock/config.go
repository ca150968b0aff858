package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/clicker/internal/config"
)

// DefaultConfig returns the product's fixed ports on localhost
func DefaultConfig() *Config {
	return &Config{
		Host:        "localhost",
		WirePort:    config.DefaultWirePort,
		ControlPort: config.DefaultControlPort,
		Reply:       true,
		Logging:     true,
	}
}

// LoadConfig loads a mock configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validateConfig validates the mock configuration
func validateConfig(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.WirePort < 1 || cfg.WirePort > 65535 {
		return fmt.Errorf("wirePort must be between 1 and 65535")
	}
	if cfg.ControlPort < 1 || cfg.ControlPort > 65535 {
		return fmt.Errorf("controlPort must be between 1 and 65535")
	}
	if cfg.WirePort == cfg.ControlPort {
		return fmt.Errorf("wirePort and controlPort must differ")
	}
	if cfg.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}

// SaveConfig saves a mock configuration to a file
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
