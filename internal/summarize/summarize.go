// Package summarize folds a normalized event log into aggregate views:
// a running Summary, incremental deltas since a cursor, grouped message
// runs, and compact status strings for list views. Every function here
// is pure: it reads a []events.Event slice and returns a value, so
// callers can summarize any snapshot of an agent's log without holding
// its lock.
package summarize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agentmux/agentmux/internal/bashinfer"
	"github.com/agentmux/agentmux/internal/events"
)

const (
	bashCommandTruncate    = 200
	errorMessageTruncate   = 500
	errorKeywordScanWindow = 20
)

var errorKeywords = []string{"error", "exception", "failed", "traceback", "panic"}

// Summary is the aggregate view over an entire event log.
type Summary struct {
	FilesWritten  []string `json:"files_modified,omitempty"`
	FilesCreated  []string `json:"files_created,omitempty"`
	FilesRead     []string `json:"files_read,omitempty"`
	FilesDeleted  []string `json:"files_deleted,omitempty"`
	ToolsUsed     []string `json:"tools_used,omitempty"`
	ToolCallCount int      `json:"tool_call_count"`
	BashCommands  []string `json:"bash_commands,omitempty"`
	FinalMessage  string   `json:"final_message,omitempty"`
	MessageBuffer string   `json:"-"` // accumulates incomplete message fragments
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Duration      string   `json:"duration,omitempty"`
}

// fileSets mirrors Summary's ordered slices with their de-dup sets,
// carried through the fold so Merge can run the same add-path logic.
type fileSets struct {
	writtenSeen, createdSeen, readSeen, deletedSeen, toolsSeen map[string]bool
}

func newFileSets() fileSets {
	return fileSets{
		writtenSeen: map[string]bool{},
		createdSeen: map[string]bool{},
		readSeen:    map[string]bool{},
		deletedSeen: map[string]bool{},
		toolsSeen:   map[string]bool{},
	}
}

// Summarize folds ev into a Summary. File sets are append-only and
// order-preserving: summarizing any prefix yields a subset of
// summarizing the full log (monotonic).
func Summarize(ev []events.Event) Summary {
	s := &Summary{}
	sets := newFileSets()
	fold(ev, s, &sets)
	return *s
}

// fold runs the shared accumulation logic used by both Summarize and
// the GetDeltaSince/GetDeltaAt pair, so the two never drift in what counts as a tool call or an
// error.
func fold(ev []events.Event, s *Summary, sets *fileSets) {
	for i, e := range ev {
		switch e.Type {
		case events.TypeFileWrite:
			addPath(&s.FilesWritten, sets.writtenSeen, e.Path)
		case events.TypeFileCreate:
			addPath(&s.FilesCreated, sets.createdSeen, e.Path)
		case events.TypeFileRead:
			addPath(&s.FilesRead, sets.readSeen, e.Path)
		case events.TypeFileDelete:
			addPath(&s.FilesDeleted, sets.deletedSeen, e.Path)
		case events.TypeToolUse:
			addPath(&s.ToolsUsed, sets.toolsSeen, e.ToolName)
		case events.TypeBash:
			tool := e.ToolName
			if tool == "" {
				tool = "bash"
			}
			addPath(&s.ToolsUsed, sets.toolsSeen, tool)
			s.BashCommands = append(s.BashCommands, truncate(e.Command, bashCommandTruncate))
			paths := bashinfer.Infer(e.Command)
			for _, p := range paths.Writes {
				addPath(&s.FilesWritten, sets.writtenSeen, p)
			}
			for _, p := range paths.Reads {
				addPath(&s.FilesRead, sets.readSeen, p)
			}
			for _, p := range paths.Deletes {
				addPath(&s.FilesDeleted, sets.deletedSeen, p)
			}
		case events.TypeMessage:
			if e.Complete {
				s.FinalMessage = e.Content
				s.MessageBuffer = ""
			} else {
				s.MessageBuffer += e.Content
			}
		case events.TypeError:
			msg := errorText(e)
			if msg == "" {
				msg = scanForErrorKeyword(ev[:i])
			}
			if msg != "" {
				s.Errors = append(s.Errors, truncate(msg, errorMessageTruncate))
			}
		case events.TypeWarning:
			if msg := errorText(e); msg != "" {
				s.Warnings = append(s.Warnings, truncate(msg, errorMessageTruncate))
			}
		case events.TypeResult:
			if e.DurationMS > 0 {
				s.Duration = FormatDuration(e.DurationMS)
			}
			if e.Status == "error" {
				msg := errorText(e)
				if msg == "" {
					msg = scanForErrorKeyword(ev[:i])
				}
				if msg != "" {
					s.Errors = append(s.Errors, truncate(msg, errorMessageTruncate))
				}
			}
		}
		if e.Type.ToolCounted() {
			s.ToolCallCount++
		}
	}
}

// addPath appends path to set if non-empty and not already present.
func addPath(dst *[]string, seen map[string]bool, path string) {
	if path == "" || seen[path] {
		return
	}
	seen[path] = true
	*dst = append(*dst, path)
}

// errorText extracts the best available message from an error/warning/
// result event, walking the fallback chain: the normalized Message, then
// Content, then the original payload's error/error_message/details keys
// (parsers keep the raw line on diagnostic events precisely so this
// chain has somewhere to look when the vendor used a key the normalizer
// didn't map).
func errorText(e events.Event) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Content != "" {
		return e.Content
	}
	if e.Raw != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(e.Raw), &raw); err == nil {
			for _, key := range []string{"error", "error_message", "details"} {
				if s, ok := raw[key].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// scanForErrorKeyword looks backward through the last errorKeywordScanWindow
// raw events for an error keyword, used when an error/result event carries
// no message of its own.
func scanForErrorKeyword(prior []events.Event) string {
	seen := 0
	for i := len(prior) - 1; i >= 0 && seen < errorKeywordScanWindow; i-- {
		e := prior[i]
		if e.Type != events.TypeRaw {
			continue
		}
		seen++
		lower := strings.ToLower(e.Raw)
		for _, kw := range errorKeywords {
			if strings.Contains(lower, kw) {
				return e.Raw
			}
		}
	}
	return ""
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FormatDuration renders a millisecond duration the way Summary.Duration
// and result-event durations are displayed: seconds with one decimal
// under a minute, minutes with one decimal at or beyond it.
func FormatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1f seconds", d.Seconds())
	}
	return fmt.Sprintf("%.1f minutes", d.Minutes())
}
