package keybinds

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_MatchFallsBackToGlobal(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		context Context
		key     string
		want    Action
		found   bool
	}{
		{ContextMain, " ", ActionToggle, true},
		{ContextMain, "enter", ActionToggle, true},
		{ContextMain, "ctrl+c", ActionQuitForce, true},
		{ContextMain, "?", ActionShowHelp, true},
		{ContextConnect, "?", ActionNoOp, true},
		{ContextConnect, "enter", ActionConnect, true},
		{ContextConnect, "t", "", false},
		{ContextWelcome, "enter", ActionContinue, true},
	}

	for _, tt := range tests {
		got, ok := r.Match(tt.context, tt.key)
		if ok != tt.found || got != tt.want {
			t.Errorf("Match(%s, %q) = %q, %v; want %q, %v", tt.context, tt.key, got, ok, tt.want, tt.found)
		}
	}
}

func TestRegistry_GetBindingString(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.GetBindingString(ContextMain, ActionDisconnect); got != "d" {
		t.Errorf("expected d, got %q", got)
	}
	if got := r.GetBindingString(ContextMain, ActionQuitForce); got != "ctrl+c" {
		t.Errorf("expected global fallback, got %q", got)
	}
	if got := r.GetBindingString(ContextWelcome, ActionToggle); got != "unbound" {
		t.Errorf("expected unbound, got %q", got)
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewDefaultRegistry()
	clone := r.Clone()
	clone.Unbind(ContextMain, ActionToggle)

	if _, ok := r.Match(ContextMain, " "); !ok {
		t.Error("original registry should be unaffected")
	}
	if _, ok := clone.Match(ContextMain, " "); ok {
		t.Error("clone should have lost the binding")
	}
}

func TestRegistry_ListBindings(t *testing.T) {
	r := NewDefaultRegistry()
	bindings := r.ListBindings(ContextMain)

	last := bindings[len(bindings)-1]
	if last.Context != ContextGlobal {
		t.Errorf("global bindings should come last, got %+v", last)
	}
}

func TestLoadOrDefault_AppliesCommentedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	content := `{
  // swap toggle to b only
  "main": { "toggle": "b" },
  /* and give connect a vim-ish history key */
  "connect": { "history_up": "up,ctrl+k" }
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}

	if action, ok := r.Match(ContextMain, "b"); !ok || action != ActionToggle {
		t.Error("expected b to toggle")
	}
	if _, ok := r.Match(ContextMain, " "); ok {
		t.Error("space should no longer toggle")
	}
	if action, _ := r.Match(ContextConnect, "ctrl+k"); action != ActionHistoryUp {
		t.Errorf("expected ctrl+k to select previous host, got %q", action)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	r, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action, _ := r.Match(ContextMain, " "); action != ActionToggle {
		t.Error("expected defaults")
	}
}

func TestLoadOrDefault_UnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	os.WriteFile(path, []byte(`{"main": {"explode": "x"}}`), 0644)

	if _, err := LoadOrDefault(path); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestCreateExampleConfig_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	if err := CreateExampleConfig(path); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("example config should parse: %v", err)
	}
	if result := NewValidator().ValidateConfig(config); result.HasErrors() {
		t.Errorf("example config should validate:\n%s", result.String())
	}
}

func TestExportDefaults_RoundTrip(t *testing.T) {
	exported := ExportDefaults()
	if exported.Main["disconnect"] != "d" {
		t.Errorf("unexpected export %v", exported.Main)
	}

	r := NewRegistry()
	if err := ApplyConfig(r, exported); err != nil {
		t.Fatalf("exported defaults should apply: %v", err)
	}
	if action, _ := r.Match(ContextMain, " "); action != ActionToggle {
		t.Error("space should survive the export")
	}
}

func TestRegistry_GetBindingStringNamesSpace(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.GetBindingString(ContextMain, ActionToggle); got != "enter/space/t" && got != "space/enter/t" {
		t.Errorf("expected space to be spelled out, got %q", got)
	}
}
