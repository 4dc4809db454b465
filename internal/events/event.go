// Package events defines the uniform Event schema that every vendor parser
// normalizes into. Events are plain values: one struct with shared fields
// plus type-specific extras, the same "shared fields + extras" shape as
// agentrun.Message, widened to the closed type set an agent-process
// orchestrator needs (file operations, bash commands, turn lifecycle).
package events

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of normalized event. The set is closed: vendor
// parsers must map into one of these, never invent new ones.
type Type string

const (
	TypeInit          Type = "init"
	TypeTurnStart     Type = "turn_start"
	TypeThinking      Type = "thinking"
	TypeThinkingDelta Type = "thinking_delta"
	TypeMessage       Type = "message"
	TypeMessageDelta  Type = "message_delta"
	TypeToolUse       Type = "tool_use"
	TypeBash          Type = "bash"
	TypeFileRead      Type = "file_read"
	TypeFileWrite     Type = "file_write"
	TypeFileCreate    Type = "file_create"
	TypeFileDelete    Type = "file_delete"
	TypeDirectoryList Type = "directory_list"
	TypeResult        Type = "result"
	TypeError         Type = "error"
	TypeWarning       Type = "warning"
	TypeRaw           Type = "raw"
	TypeUserMessage   Type = "user_message"
)

// Priority classifies an event type for consumers that want to sample or
// prioritize a stream rather than consume it wholesale.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityVerbose   Priority = "verbose"
)

var criticalTypes = map[Type]bool{
	TypeError:      true,
	TypeResult:     true,
	TypeFileWrite:  true,
	TypeFileDelete: true,
	TypeFileCreate: true,
}

var importantTypes = map[Type]bool{
	TypeToolUse:  true,
	TypeBash:     true,
	TypeFileRead: true,
	TypeThinking: true,
	TypeMessage:  true,
}

// Priority returns the critical/important/verbose classification for t,
// per the buckets in the data model: critical covers errors, results and
// file mutations; important covers tool invocations, bash, reads,
// thinking and messages; everything else (deltas, init, raw, lifecycle
// chatter) is verbose.
func (t Type) Priority() Priority {
	switch {
	case criticalTypes[t]:
		return PriorityCritical
	case importantTypes[t]:
		return PriorityImportant
	default:
		return PriorityVerbose
	}
}

// Event is a single normalized record emitted by a vendor parser.
//
// Not every field is populated by every type. Content/Complete carry
// message and thinking text, Path carries file operations, Command
// carries bash, Tool* carries tool_use, Model/SessionID carry init,
// Status/DurationMS/Usage carry result, Message carries error/warning
// text, Raw carries the original line for unparseable input.
type Event struct {
	Type      Type      `json:"type"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`

	// Message / thinking text, and streaming-delta completion marker.
	Content  string `json:"content,omitempty"`
	Complete bool   `json:"complete,omitempty"`

	// File operations (file_read/write/create/delete, directory_list).
	Path string `json:"path,omitempty"`

	// Bash commands.
	Command string `json:"command,omitempty"`

	// Tool invocations.
	ToolName string          `json:"tool,omitempty"`
	ToolArgs json.RawMessage `json:"args,omitempty"`

	// init.
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// result.
	Status     string `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Usage      *Usage `json:"usage,omitempty"`

	// error / warning.
	Message string `json:"message,omitempty"`

	// raw: original unparsed line.
	Raw string `json:"raw,omitempty"`
}

// Usage carries token accounting reported by a result event, when the
// vendor's output includes it.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// IsDelta reports whether t is a streaming partial-content type.
func (t Type) IsDelta() bool {
	return t == TypeThinkingDelta || t == TypeMessageDelta
}

// ToolCounted reports whether t increments Summary.ToolCallCount:
// tool_use, bash, and every file-operation type.
func (t Type) ToolCounted() bool {
	switch t {
	case TypeToolUse, TypeBash, TypeFileRead, TypeFileWrite, TypeFileCreate, TypeFileDelete:
		return true
	default:
		return false
	}
}
