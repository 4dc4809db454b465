package codex

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/agentmux/agentmux/internal/agentcli/internal/jsonutil"
	"github.com/agentmux/agentmux/internal/events"
)

// Parser implements agentcli.Parser for Codex's exec --json dialect.
type Parser struct{}

type typeParser func(raw map[string]any, ts time.Time) []events.Event

var typeParsers = map[string]typeParser{
	"thread.started": parseThreadStarted,
	"turn.started":   parseTurnStarted,
	"turn.completed": parseTurnCompleted,
	"item.completed": parseItemCompleted,
	"error":          parseError,
	"warning":        parseWarning,
}

// diagnosticKeys is the fallback chain for extracting a human-readable
// message from an error/warning payload.
var diagnosticKeys = []string{"message", "content", "error", "error_message", "details"}

// itemParser parses the inner item of an item.completed event, dispatched
// on item.type.
type itemParser func(item map[string]any, ts time.Time) []events.Event

var itemParsers = map[string]itemParser{
	"agent_message": parseAgentMessage,
	"tool_call":     parseToolCall,
}

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

// parseThreadStarted handles thread.started → init{session_id=thread_id}.
func parseThreadStarted(raw map[string]any, ts time.Time) []events.Event {
	return []events.Event{{
		Type:      events.TypeInit,
		Timestamp: ts,
		SessionID: jsonutil.GetString(raw, "thread_id"),
	}}
}

// parseTurnStarted handles turn.started → turn_start.
func parseTurnStarted(_ map[string]any, ts time.Time) []events.Event {
	return []events.Event{{Type: events.TypeTurnStart, Timestamp: ts}}
}

// parseTurnCompleted handles turn.completed → result{status=success,usage}.
func parseTurnCompleted(raw map[string]any, ts time.Time) []events.Event {
	ev := events.Event{Type: events.TypeResult, Timestamp: ts, Status: "success"}
	if usage := jsonutil.GetMap(raw, "usage"); usage != nil {
		in := jsonutil.GetInt64(usage, "input_tokens")
		out := jsonutil.GetInt64(usage, "output_tokens")
		if in != 0 || out != 0 {
			ev.Usage = &events.Usage{InputTokens: int(in), OutputTokens: int(out)}
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

// parseItemCompleted dispatches on item.type within an item.completed event.
func parseItemCompleted(raw map[string]any, ts time.Time) []events.Event {
	item := jsonutil.GetMap(raw, "item")
	if item == nil {
		return nil
	}
	itemType := jsonutil.GetString(item, "type")
	if parser, ok := itemParsers[itemType]; ok {
		return parser(item, ts)
	}
	return nil
}

// parseAgentMessage handles item.type=agent_message → message{complete=true}.
func parseAgentMessage(item map[string]any, ts time.Time) []events.Event {
	return []events.Event{{
		Type:      events.TypeMessage,
		Timestamp: ts,
		Content:   jsonutil.GetString(item, "text"),
		Complete:  true,
	}}
}

// parseToolCall handles item.type=tool_call, dispatching on item.name:
// write_file → file_write, read_file → file_read, shell → bash,
// anything else → tool_use{tool,args}. A missing path drops the
// file-op event rather than synthesizing one.
func parseToolCall(item map[string]any, ts time.Time) []events.Event {
	name := jsonutil.GetString(item, "name")
	args := jsonutil.GetMap(item, "arguments")

	switch name {
	case "write_file":
		path := jsonutil.GetString(args, "path")
		if path == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeFileWrite, Timestamp: ts, Path: path}}
	case "read_file":
		path := jsonutil.GetString(args, "path")
		if path == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeFileRead, Timestamp: ts, Path: path}}
	case "shell":
		cmd := jsonutil.GetString(args, "command")
		if cmd == "" {
			return nil
		}
		return []events.Event{{Type: events.TypeBash, Timestamp: ts, ToolName: name, Command: cmd}}
	default:
		raw, _ := json.Marshal(args)
		return []events.Event{{
			Type:      events.TypeToolUse,
			Timestamp: ts,
			ToolName:  name,
			ToolArgs:  raw,
		}}
	}
}
