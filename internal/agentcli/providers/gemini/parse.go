package gemini

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/agentmux/agentmux/internal/agentcli/internal/jsonutil"
	"github.com/agentmux/agentmux/internal/events"
)

// Parser implements agentcli.Parser for Gemini's JSONL dialect. opencode
// and trae reuse this type directly.
type Parser struct{}

type typeParser func(raw map[string]any, ts time.Time) []events.Event

var typeParsers = map[string]typeParser{
	"init":      parseInit,
	"message":   parseMessage,
	"tool_call": parseToolCall,
	"error":     parseError,
	"warning":   parseWarning,
}

// diagnosticKeys is the fallback chain for extracting a human-readable
// message from an error/warning payload.
var diagnosticKeys = []string{"message", "content", "error", "error_message", "details"}

// ParseLine converts a single JSONL line into normalized events. Never
// errors: malformed or unrecognized input becomes a TypeRaw event.
func (Parser) ParseLine(line string) []events.Event {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return []events.Event{{Type: events.TypeRaw, Raw: line}}
	}

	ts := extractTimestamp(raw)
	typeStr := jsonutil.GetString(raw, "type")

	if parser, ok := typeParsers[typeStr]; ok {
		return parser(raw, ts)
	}
	return []events.Event{{Type: events.TypeRaw, Raw: line, Timestamp: ts}}
}

func extractTimestamp(raw map[string]any) time.Time {
	if s := jsonutil.GetString(raw, "timestamp"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// parseInit handles type=init. session_id is left empty when absent; per
// the documented decision, Gemini's session ID is never synthesized.
func parseInit(raw map[string]any, ts time.Time) []events.Event {
	return []events.Event{{
		Type:      events.TypeInit,
		Timestamp: ts,
		Model:     jsonutil.GetString(raw, "model"),
		SessionID: jsonutil.GetString(raw, "session_id"),
	}}
}

// parseMessage handles type=message; delta=true means the fragment is
// incomplete, so complete is the logical negation.
func parseMessage(raw map[string]any, ts time.Time) []events.Event {
	delta := jsonutil.GetBool(raw, "delta")
	return []events.Event{{
		Type:      events.TypeMessage,
		Timestamp: ts,
		Content:   jsonutil.GetString(raw, "content"),
		Complete:  !delta,
	}}
}

// parseError handles type=error, walking the diagnostic key chain for
// the message and keeping the original payload in Raw.
func parseError(raw map[string]any, ts time.Time) []events.Event {
	ev := events.Event{
		Type:      events.TypeError,
		Timestamp: ts,
		Message:   jsonutil.FirstString(raw, diagnosticKeys...),
	}
	if data, err := json.Marshal(raw); err == nil {
		ev.Raw = string(data)
	}
	return []events.Event{ev}
}

// parseWarning handles type=warning the same way as parseError.
func parseWarning(raw map[string]any, ts time.Time) []events.Event {
	ev := events.Event{
		Type:      events.TypeWarning,
		Timestamp: ts,
		Message:   jsonutil.FirstString(raw, diagnosticKeys...),
	}
	if data, err := json.Marshal(raw); err == nil {
		ev.Raw = string(data)
	}
	return []events.Event{ev}
}

// parseToolCall handles type=tool_call, dispatching on name: write_file →
// file_write, read_file → file_read, run_command → bash. A missing
// path/command drops the event rather than synthesizing one.
func parseToolCall(raw map[string]any, ts time.Time) []events.Event {
	switch jsonutil.GetString(raw, "name") {
	case "write_file":
		path := jsonutil.GetString(raw, "path")
		if path == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeFileWrite, Timestamp: ts, Path: path}}
	case "read_file":
		path := jsonutil.GetString(raw, "path")
		if path == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeFileRead, Timestamp: ts, Path: path}}
	case "run_command":
		cmd := jsonutil.GetString(raw, "command")
		if cmd == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeBash, Timestamp: ts, Command: cmd}}
	default:
		return nil
	}
}
