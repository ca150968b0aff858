package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// DefaultWirePort is the port the remote host's WebSocket server listens on
	DefaultWirePort = 8765
	// DefaultControlPort is the host's web-facing port, rewritten to the wire port
	DefaultControlPort = 8080
	// DefaultReconnectDelay is the fixed delay between reconnect attempts
	DefaultReconnectDelay = 3000 * time.Millisecond
)

var (
	// ConfigDir is the global configuration directory (~/.clicker)
	ConfigDir string

	// DatabasePath is the SQLite database holding the key-value state and analytics
	DatabasePath string

	// SettingsFile is the YAML settings file
	SettingsFile string

	// KeybindsFile is the keybinding override file
	KeybindsFile string

	// LogFile is the rotating log file (the TUI owns stdout)
	LogFile string
)

// Settings holds user-tunable values read from config.yaml
type Settings struct {
	WirePort       int           `yaml:"wirePort"`
	ControlPort    int           `yaml:"controlPort"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay"`
	LogLevel       string        `yaml:"logLevel"`
	Storage        Storage       `yaml:"storage"`
	Feedback       Feedback      `yaml:"feedback"`
}

// Storage selects the SQLite driver backing the key-value store
type Storage struct {
	// Driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go)
	Driver string `yaml:"driver"`
}

// Feedback switches the toggle feedback sinks
type Feedback struct {
	Audio  bool `yaml:"audio"`
	Haptic bool `yaml:"haptic"`
}

// Defaults returns the settings used when config.yaml is missing or partial
func Defaults() Settings {
	return Settings{
		WirePort:       DefaultWirePort,
		ControlPort:    DefaultControlPort,
		ReconnectDelay: DefaultReconnectDelay,
		LogLevel:       "info",
		Storage:        Storage{Driver: "sqlite3"},
		Feedback:       Feedback{Audio: true, Haptic: true},
	}
}

// Initialize sets up the configuration directories and files
// It creates ~/.clicker/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".clicker"))
}

// InitializeAt sets the global paths under dir and seeds default files
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "clicker.db")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	LogFile = filepath.Join(ConfigDir, "clicker.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default settings file if it doesn't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		data, err := yaml.Marshal(Defaults())
		if err != nil {
			return fmt.Errorf("failed to marshal default settings: %w", err)
		}
		if err := os.WriteFile(SettingsFile, data, FilePermissions); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// Load reads settings from path, filling anything unset with defaults
func Load(path string) (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	defaults := Defaults()
	if settings.WirePort <= 0 || settings.WirePort > 65535 {
		settings.WirePort = defaults.WirePort
	}
	if settings.ControlPort <= 0 || settings.ControlPort > 65535 {
		settings.ControlPort = defaults.ControlPort
	}
	if settings.ReconnectDelay <= 0 {
		settings.ReconnectDelay = defaults.ReconnectDelay
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
	if settings.Storage.Driver == "" {
		settings.Storage.Driver = defaults.Storage.Driver
	}

	return settings, nil
}

// GetSettingsFilePath returns the settings file path (local or global)
func GetSettingsFilePath() string {
	if _, err := os.Stat(".clicker.yaml"); err == nil {
		return ".clicker.yaml"
	}
	return SettingsFile
}
