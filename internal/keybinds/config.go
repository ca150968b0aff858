package keybinds

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config represents the user's keybinding configuration. Each section maps
// an action to a comma-separated list of keys.
type Config struct {
	Version string            `json:"version"`
	Global  map[string]string `json:"global,omitempty"`
	Welcome map[string]string `json:"welcome,omitempty"`
	Connect map[string]string `json:"connect,omitempty"`
	Main    map[string]string `json:"main,omitempty"`
}

func (c *Config) sections() map[Context]map[string]string {
	return map[Context]map[string]string{
		ContextGlobal:  c.Global,
		ContextWelcome: c.Welcome,
		ContextConnect: c.Connect,
		ContextMain:    c.Main,
	}
}

// LoadConfig loads keybinding configuration from a JSON (with comments) file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}

	return &config, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SplitKeys parses a comma-separated key list. A lone "space" names " ".
func SplitKeys(list string) []string {
	var keys []string
	for _, key := range strings.Split(list, ",") {
		key = strings.TrimSpace(key)
		if key == "space" {
			key = " "
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// ApplyConfig applies user configuration to a registry. Listed actions lose
// their previous keys in that context.
func ApplyConfig(registry *Registry, config *Config) error {
	for context, section := range config.sections() {
		for actionStr, keyList := range section {
			action := Action(actionStr)
			if err := ValidateAction(actionStr); err != nil {
				return fmt.Errorf("%s: %w", context, err)
			}
			if !IsKnownAction(action) {
				return fmt.Errorf("%s: unknown action %q", context, actionStr)
			}

			keys := SplitKeys(keyList)
			for _, key := range keys {
				if err := ValidateKey(key); err != nil {
					return fmt.Errorf("%s.%s: %w", context, actionStr, err)
				}
			}

			registry.Unbind(context, action)
			registry.RegisterMultiple(context, keys, action)
		}
	}

	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err == nil {
		config, err := LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
		}

		if err := ApplyConfig(registry, config); err != nil {
			return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
		}
	}

	return registry, nil
}

// ExportDefaults renders the default registry as a config
func ExportDefaults() *Config {
	registry := NewDefaultRegistry()
	config := &Config{Version: "1.0"}

	for context, target := range map[Context]*map[string]string{
		ContextGlobal:  &config.Global,
		ContextWelcome: &config.Welcome,
		ContextConnect: &config.Connect,
		ContextMain:    &config.Main,
	} {
		section := make(map[string]string)
		for key, action := range registry.bindings[context] {
			if action == ActionNoOp {
				continue
			}
			if key == " " {
				key = "space"
			}
			if existing, ok := section[string(action)]; ok {
				section[string(action)] = existing + "," + key
			} else {
				section[string(action)] = key
			}
		}
		*target = section
	}

	return config
}

// CreateExampleConfig writes a commented example keybinds.json
func CreateExampleConfig(path string) error {
	example := `{
  // Each entry maps an action to a comma-separated key list.
  // Listing an action replaces its default keys in that view.
  "version": "1.0",
  "main": {
    "toggle": "space,enter,t",
    "disconnect": "d",
    "change_server": "s",
    "copy_address": "y"
  },
  "connect": {
    "history_up": "up,ctrl+p",
    "history_down": "down,ctrl+n"
  }
}
`
	return os.WriteFile(path, []byte(example), 0644)
}
