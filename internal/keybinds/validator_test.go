package keybinds

import (
	"strings"
	"testing"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()

	if v == nil {
		t.Fatal("NewValidator returned nil")
	}

	if !v.reservedKeys["ctrl+c"] {
		t.Error("Expected ctrl+c to be a reserved key")
	}

	for _, ctx := range []Context{ContextWelcome, ContextConnect, ContextMain} {
		if v.contextHierarchy[ctx] != ContextGlobal {
			t.Errorf("Expected %s to inherit from global", ctx)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name: "conflict error",
			err: ValidationError{
				Type:    "conflict",
				Context: ContextMain,
				Key:     "t",
				Message: "key bound 2 times",
			},
			expected: "[conflict] t in context 'main': key bound 2 times",
		},
		{
			name: "invalid error",
			err: ValidationError{
				Type:    "invalid",
				Context: ContextGlobal,
				Key:     "",
				Message: "empty key",
			},
			expected: "[invalid]  in context 'global': empty key",
		},
		{
			name: "warning",
			err: ValidationError{
				Type:    "warning",
				Context: ContextConnect,
				Key:     "?",
				Message: "shadows global binding",
			},
			expected: "[warning] ? in context 'connect': shadows global binding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationResult_String(t *testing.T) {
	tests := []struct {
		name     string
		result   *ValidationResult
		contains []string
	}{
		{
			name:     "no issues",
			result:   &ValidationResult{},
			contains: []string{"No issues found"},
		},
		{
			name: "only errors",
			result: &ValidationResult{
				Errors: []ValidationError{
					{Type: "conflict", Context: ContextMain, Key: "t", Message: "duplicate"},
				},
			},
			contains: []string{"Errors (1)", "conflict", "main", "t"},
		},
		{
			name: "both errors and warnings",
			result: &ValidationResult{
				Errors: []ValidationError{
					{Type: "conflict", Context: ContextMain, Key: "t", Message: "duplicate"},
				},
				Warnings: []ValidationError{
					{Type: "warning", Context: ContextConnect, Key: "?", Message: "shadows"},
				},
			},
			contains: []string{"Errors (1)", "Warnings (1)", "conflict", "warning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.result.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("String() output missing %q, got:\n%s", want, got)
				}
			}
			if tt.result.HasErrors() != (len(tt.result.Errors) > 0) {
				t.Error("HasErrors mismatch")
			}
			if tt.result.HasWarnings() != (len(tt.result.Warnings) > 0) {
				t.Error("HasWarnings mismatch")
			}
		})
	}
}

func TestValidateRegistry_DefaultsAreClean(t *testing.T) {
	result := NewValidator().ValidateRegistry(NewDefaultRegistry())

	if result.HasErrors() || result.HasWarnings() {
		t.Errorf("default registry should validate cleanly:\n%s", result.String())
	}
}

func TestCheckReservedKeys(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(ContextMain, "ctrl+c", ActionToggle)

	result := NewValidator().ValidateRegistry(r)
	found := false
	for _, w := range result.Warnings {
		if w.Key == "ctrl+c" && w.Context == ContextMain {
			found = true
		}
	}
	if !found {
		t.Errorf("expected reserved key warning, got:\n%s", result.String())
	}
}

func TestCheckShadowing(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(ContextMain, "?", ActionToggle)

	result := NewValidator().ValidateRegistry(r)
	if !result.HasWarnings() {
		t.Fatal("expected shadowing warning")
	}
	if !strings.Contains(result.Warnings[0].Message, "show_help -> toggle") {
		t.Errorf("unexpected warning %q", result.Warnings[0].Message)
	}
}

func TestCheckUnreachable(t *testing.T) {
	r := NewDefaultRegistry()
	r.Unbind(ContextMain, ActionToggle)

	result := NewValidator().ValidateRegistry(r)
	if !result.HasErrors() {
		t.Fatal("expected an error for an unbound toggle")
	}
	if !strings.Contains(result.String(), "toggle has no key") {
		t.Errorf("unexpected result:\n%s", result.String())
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name       string
		config     *Config
		wantErrors bool
	}{
		{
			name:   "valid override",
			config: &Config{Main: map[string]string{"toggle": "space,b"}},
		},
		{
			name:       "unknown action",
			config:     &Config{Main: map[string]string{"launch_rockets": "r"}},
			wantErrors: true,
		},
		{
			name:       "modifier without key",
			config:     &Config{Main: map[string]string{"toggle": "ctrl+"}},
			wantErrors: true,
		},
		{
			name: "same key for two actions",
			config: &Config{Main: map[string]string{
				"toggle":     "x",
				"disconnect": "x",
			}},
			wantErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidator().ValidateConfig(tt.config)
			if result.HasErrors() != tt.wantErrors {
				t.Errorf("HasErrors() = %v, want %v:\n%s", result.HasErrors(), tt.wantErrors, result.String())
			}
		})
	}
}

func TestFindConflicts(t *testing.T) {
	config := &Config{Connect: map[string]string{
		"history_up":   "ctrl+k",
		"history_down": "ctrl+k",
	}}

	conflicts := FindConflicts(config)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %v", conflicts)
	}
	if !strings.Contains(conflicts[0], "ctrl+k") {
		t.Errorf("conflict should name the key: %s", conflicts[0])
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"t", false},
		{" ", false},
		{"ctrl+p", false},
		{"", true},
		{"ctrl+", true},
		{"alt+", true},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}

func TestValidateAction(t *testing.T) {
	if err := ValidateAction(""); err == nil {
		t.Error("expected error for empty action")
	}
	if err := ValidateAction("toggle"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
