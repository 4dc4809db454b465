package codex

import (
	"testing"

	"github.com/agentmux/agentmux/internal/events"
)

func TestParseLineToolCallShell(t *testing.T) {
	line := `{"type":"item.completed","item":{"type":"tool_call","name":"shell","arguments":{"command":"npm install"}}}`

	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Type != events.TypeBash {
		t.Errorf("Type = %v, want %v", ev.Type, events.TypeBash)
	}
	if ev.ToolName != "shell" {
		t.Errorf("ToolName = %q, want shell", ev.ToolName)
	}
	if ev.Command != "npm install" {
		t.Errorf("Command = %q, want npm install", ev.Command)
	}
}

func TestParseLineThreadStarted(t *testing.T) {
	line := `{"type":"thread.started","thread_id":"abc123"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeInit || evs[0].SessionID != "abc123" {
		t.Errorf("got %+v, want init{session_id=abc123}", evs)
	}
}

func TestParseLineError(t *testing.T) {
	line := `{"type":"error","details":"stream disconnected"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeError || evs[0].Message != "stream disconnected" {
		t.Errorf("got %+v, want error{message=stream disconnected}", evs)
	}
}

func TestParseLineMalformed(t *testing.T) {
	evs := Parser{}.ParseLine("not json")
	if len(evs) != 1 || evs[0].Type != events.TypeRaw {
		t.Errorf("got %+v, want a single raw event", evs)
	}
}

func TestParseLineBlank(t *testing.T) {
	if evs := (Parser{}).ParseLine("   "); evs != nil {
		t.Errorf("got %+v, want nil for blank line", evs)
	}
}
