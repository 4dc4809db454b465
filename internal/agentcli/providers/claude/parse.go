package claude

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/agentmux/agentmux/internal/agentcli/internal/jsonutil"
	"github.com/agentmux/agentmux/internal/events"
)

// Parser implements agentcli.Parser for Claude's JSONL dialect. Cursor
// reuses this verbatim; its wire format is textually identical per the
// normalization rules.
type Parser struct{}

// typeParser parses one raw JSON object of a known top-level type into
// zero or more events. Dispatch table keyed on the "type" field, the same
// shape as the codex/item dispatch tables.
type typeParser func(raw map[string]any, ts time.Time) []events.Event

var typeParsers = map[string]typeParser{
	"system":          parseSystem,
	"thinking":        parseThinking,
	"assistant":       parseAssistant,
	"tool_call.edit":  parseToolCallEdit,
	"tool_call.read":  parseToolCallRead,
	"tool_call.shell": parseToolCallShell,
	"result":          parseResult,
	"error":           parseError,
	"warning":         parseWarning,
}

// diagnosticKeys is the fallback chain for extracting a human-readable
// message from an error/warning payload; vendors disagree on which key
// carries it.
var diagnosticKeys = []string{"message", "content", "error", "error_message", "details"}

// ParseLine converts a single JSONL line into normalized events. Never
// returns an error: a malformed or unrecognized line becomes a single
// TypeRaw event.
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
		if evs := parser(raw, ts); evs != nil {
			return evs
		}
		return nil
	}
	return []events.Event{{Type: events.TypeRaw, Raw: line, Timestamp: ts}}
}

// extractTimestamp reads the vendor-provided timestamp field, falling
// back to the wall-clock read time when absent or unparsable.
func extractTimestamp(raw map[string]any) time.Time {
	if s := jsonutil.GetString(raw, "timestamp"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// parseSystem handles type=system; only subtype=init carries an event.
func parseSystem(raw map[string]any, ts time.Time) []events.Event {
	if jsonutil.GetString(raw, "subtype") != "init" {
		return nil
	}
	return []events.Event{{
		Type:      events.TypeInit,
		Timestamp: ts,
		Model:     jsonutil.GetString(raw, "model"),
		SessionID: jsonutil.GetString(raw, "session_id"),
	}}
}

// parseThinking handles type=thinking with subtype=delta|complete.
func parseThinking(raw map[string]any, ts time.Time) []events.Event {
	subtype := jsonutil.GetString(raw, "subtype")
	t := events.TypeThinking
	if subtype == "delta" {
		t = events.TypeThinkingDelta
	}
	return []events.Event{{
		Type:      t,
		Timestamp: ts,
		Content:   jsonutil.GetString(raw, "text"),
		Complete:  subtype == "complete",
	}}
}

// parseAssistant handles type=assistant, emitting one message event per
// text content part in message.content.
func parseAssistant(raw map[string]any, ts time.Time) []events.Event {
	message := jsonutil.GetMap(raw, "message")
	if message == nil {
		return nil
	}
	parts := jsonutil.GetSlice(message, "content")
	var out []events.Event
	for _, part := range parts {
		pm, ok := part.(map[string]any)
		if !ok || jsonutil.GetString(pm, "type") != "text" {
			continue
		}
		out = append(out, events.Event{
			Type:      events.TypeMessage,
			Timestamp: ts,
			Content:   jsonutil.GetString(pm, "text"),
			Complete:  true,
		})
	}
	return out
}

// parseToolCallEdit handles type=tool_call.edit → file_write. A missing
// path drops the event rather than synthesizing one.
func parseToolCallEdit(raw map[string]any, ts time.Time) []events.Event {
	path := jsonutil.GetString(raw, "path")
	if path == "" {
		return nil
	}
	return []events.Event{{Type: events.TypeFileWrite, Timestamp: ts, Path: path}}
}

// parseToolCallRead handles type=tool_call.read → file_read.
func parseToolCallRead(raw map[string]any, ts time.Time) []events.Event {
	path := jsonutil.GetString(raw, "path")
	if path == "" {
		return nil
	}
	return []events.Event{{Type: events.TypeFileRead, Timestamp: ts, Path: path}}
}

// parseToolCallShell handles type=tool_call.shell → bash.
func parseToolCallShell(raw map[string]any, ts time.Time) []events.Event {
	cmd := jsonutil.GetString(raw, "command")
	if cmd == "" {
		return nil
	}
	return []events.Event{{Type: events.TypeBash, Timestamp: ts, Command: cmd}}
}

// parseResult handles type=result → result{status, duration_ms}. The
// dialect carries the status in "subtype" (consistent with system/thinking
// elsewhere in this same dialect); "status" is accepted too in case a
// caller's own tooling reshapes the line, but subtype wins when both
// are present. An error result keeps the original payload in Raw so
// consumers can dig out whichever diagnostic key the vendor used.
func parseResult(raw map[string]any, ts time.Time) []events.Event {
	status := jsonutil.GetString(raw, "subtype")
	if status == "" {
		status = jsonutil.GetString(raw, "status")
	}
	ev := events.Event{
		Type:       events.TypeResult,
		Timestamp:  ts,
		Status:     status,
		DurationMS: jsonutil.GetInt64(raw, "duration_ms"),
	}
	if status == "error" {
		ev.Message = jsonutil.FirstString(raw, diagnosticKeys...)
		if data, err := json.Marshal(raw); err == nil {
			ev.Raw = string(data)
		}
	}
	return []events.Event{ev}
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
