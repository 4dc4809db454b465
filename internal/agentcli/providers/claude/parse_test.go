package claude

import (
	"testing"

	"github.com/agentmux/agentmux/internal/events"
)

func TestParseLineResult(t *testing.T) {
	line := `{"type":"result","subtype":"success","duration_ms":5000}`

	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Type != events.TypeResult {
		t.Errorf("Type = %v, want %v", ev.Type, events.TypeResult)
	}
	if ev.Status != "success" {
		t.Errorf("Status = %q, want success", ev.Status)
	}
	if ev.DurationMS != 5000 {
		t.Errorf("DurationMS = %d, want 5000", ev.DurationMS)
	}
}

func TestParseLineSystemInit(t *testing.T) {
	line := `{"type":"system","subtype":"init","model":"claude-sonnet","session_id":"s1"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeInit || evs[0].Model != "claude-sonnet" || evs[0].SessionID != "s1" {
		t.Errorf("got %+v, want init{model=claude-sonnet, session_id=s1}", evs)
	}
}

func TestParseLineSystemNonInit(t *testing.T) {
	line := `{"type":"system","subtype":"other"}`
	if evs := (Parser{}).ParseLine(line); evs != nil {
		t.Errorf("got %+v, want no event for non-init system message", evs)
	}
}

func TestParseLineAssistantMultipleTextParts(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2", len(evs))
	}
	if evs[0].Content != "a" || evs[1].Content != "b" {
		t.Errorf("got contents %q, %q, want a, b", evs[0].Content, evs[1].Content)
	}
	for _, ev := range evs {
		if ev.Type != events.TypeMessage || !ev.Complete {
			t.Errorf("event %+v not a complete message", ev)
		}
	}
}

func TestParseLineToolCallEditMissingPath(t *testing.T) {
	line := `{"type":"tool_call.edit"}`
	if evs := (Parser{}).ParseLine(line); evs != nil {
		t.Errorf("got %+v, want no event when path is missing", evs)
	}
}

func TestParseLineError(t *testing.T) {
	line := `{"type":"error","error_message":"command exited 1"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeError || evs[0].Message != "command exited 1" {
		t.Errorf("got %+v, want error{message=command exited 1}", evs)
	}
	if evs[0].Raw == "" {
		t.Error("expected the original payload kept in Raw")
	}
}

func TestParseLineWarning(t *testing.T) {
	line := `{"type":"warning","message":"model deprecated"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeWarning || evs[0].Message != "model deprecated" {
		t.Errorf("got %+v, want warning{message=model deprecated}", evs)
	}
}

func TestParseLineResultErrorCarriesDiagnostic(t *testing.T) {
	line := `{"type":"result","subtype":"error","error":"context limit"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeResult || evs[0].Status != "error" {
		t.Fatalf("got %+v, want result{status=error}", evs)
	}
	if evs[0].Message != "context limit" {
		t.Errorf("Message = %q, want the error key's value", evs[0].Message)
	}
	if evs[0].Raw == "" {
		t.Error("expected the original payload kept in Raw")
	}
}

func TestParseLineThinkingDelta(t *testing.T) {
	line := `{"type":"thinking","subtype":"delta","text":"considering"}`
	evs := Parser{}.ParseLine(line)
	if len(evs) != 1 || evs[0].Type != events.TypeThinkingDelta || evs[0].Complete {
		t.Errorf("got %+v, want incomplete thinking_delta", evs)
	}
}
