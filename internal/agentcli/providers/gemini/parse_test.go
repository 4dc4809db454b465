package gemini

import (
	"testing"

	"github.com/agentmux/agentmux/internal/events"
)

func TestParseLineToolCallRunCommand(t *testing.T) {
	line := `{"type":"tool_call","name":"run_command","command":"go test ./..."}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeBash || evs[0].Command != "go test ./..." {
		t.Errorf("got %+v, want bash{command=go test ./...}", evs)
	}
}

func TestParseLineMessageDelta(t *testing.T) {
	line := `{"type":"message","delta":true,"content":"partial"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Complete {
		t.Errorf("got %+v, want incomplete message", evs)
	}
}

func TestParseLineMessageComplete(t *testing.T) {
	line := `{"type":"message","content":"done"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || !evs[0].Complete {
		t.Errorf("got %+v, want complete message", evs)
	}
}

func TestParseLineError(t *testing.T) {
	line := `{"type":"error","error":"quota exceeded"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeError || evs[0].Message != "quota exceeded" {
		t.Errorf("got %+v, want error{message=quota exceeded}", evs)
	}
}

func TestParseLineWarning(t *testing.T) {
	line := `{"type":"warning","message":"falling back to flash"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeWarning || evs[0].Message != "falling back to flash" {
		t.Errorf("got %+v, want warning{message=falling back to flash}", evs)
	}
}

func TestParseLineInitNoSessionID(t *testing.T) {
	line := `{"type":"init","model":"gemini-pro"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].SessionID != "" {
		t.Errorf("got %+v, want empty session_id, never synthesized", evs)
	}
}
