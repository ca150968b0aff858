package protocol

import (
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionKeyDown, `{"action":"key_down"}`},
		{ActionKeyUp, `{"action":"key_up"}`},
	}

	for _, tt := range tests {
		got, err := Encode(tt.action)
		if err != nil {
			t.Fatalf("Encode(%q) returned error: %v", tt.action, err)
		}
		if string(got) != tt.want {
			t.Errorf("Encode(%q) = %s, want %s", tt.action, got, tt.want)
		}
	}
}

func TestEncode_UnknownAction(t *testing.T) {
	if _, err := Encode(Action("press")); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestActionFor(t *testing.T) {
	if ActionFor(true) != ActionKeyDown {
		t.Error("on should map to key_down")
	}
	if ActionFor(false) != ActionKeyUp {
		t.Error("off should map to key_up")
	}
}

func TestDecode(t *testing.T) {
	cmd, err := Decode([]byte(`{"action":"key_up"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != ActionKeyUp {
		t.Errorf("expected key_up, got %q", cmd.Action)
	}

	if _, err := Decode([]byte(`{"action":"jump"}`)); err == nil {
		t.Error("expected error for unknown action")
	}
	if _, err := Decode([]byte(`not json`)); err == nil || !strings.Contains(err.Error(), "invalid command") {
		t.Errorf("expected invalid command error, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "(empty)"},
		{"hello", "hello"},
		{`{"status":"ok"}`, "ok"},
		{`{"action":"key_down","status":"pressed"}`, "key_down: pressed"},
		{`{"other":1}`, `{"other":1}`},
	}

	for _, tt := range tests {
		if got := Describe([]byte(tt.in)); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
