package summarize

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentmux/agentmux/internal/events"
)

const (
	newBashCommandsLimit = 15
	newMessagesLimit     = 5
)

// Delta is the incremental view returned by GetDeltaSince and GetDeltaAt:
// a Summary computed
// over only the events after a cursor, plus the counters and capped
// recent-activity lists a polling caller wants without re-summarizing
// the whole log.
// On the wire the delta's counters ride alongside the delta summary (the
// RPC layer serializes that summary separately), so Summary itself is
// excluded from Delta's own JSON shape.
type Delta struct {
	Summary         Summary   `json:"-"`
	NewEventsCount  int       `json:"new_events_count"`
	HasChanges      bool      `json:"has_changes"`
	NewBashCommands []string  `json:"new_bash_commands,omitempty"`
	NewMessages     []string  `json:"new_messages,omitempty"`
	NewToolCount    int       `json:"new_tool_count"`
	NewErrors       []string  `json:"new_errors,omitempty"`
	Cursor          time.Time `json:"cursor"`
}

// GetDeltaSince returns the delta for events with a strictly later
// timestamp than since.
func GetDeltaSince(all []events.Event, since time.Time) Delta {
	idx := len(all)
	for i, e := range all {
		if e.Timestamp.After(since) {
			idx = i
			break
		}
	}
	return buildDelta(all, all[idx:])
}

// GetDeltaAt returns the delta for events at or after idx (an integer
// cursor, as opposed to a timestamp cursor).
func GetDeltaAt(all []events.Event, idx int) Delta {
	if idx < 0 {
		idx = 0
	}
	if idx > len(all) {
		idx = len(all)
	}
	return buildDelta(all, all[idx:])
}

func buildDelta(all, suffix []events.Event) Delta {
	s := Summarize(suffix)
	d := Delta{
		Summary:        s,
		NewEventsCount: len(suffix),
		HasChanges:     len(suffix) > 0,
		NewToolCount:   s.ToolCallCount,
		NewErrors:      s.Errors,
		NewMessages:    GetLastMessages(suffix, newMessagesLimit),
	}
	if len(s.BashCommands) > newBashCommandsLimit {
		d.NewBashCommands = s.BashCommands[len(s.BashCommands)-newBashCommandsLimit:]
	} else {
		d.NewBashCommands = s.BashCommands
	}
	if len(all) > 0 {
		d.Cursor = all[len(all)-1].Timestamp
	}
	return d
}

// Merge reconstructs the full-log summary from a prior summary and the
// delta summary computed since that prior summary's cursor. The two
// inputs must not overlap in events; GetDeltaSince's strict "timestamp >
// since" boundary guarantees that for its callers.
func Merge(base, delta Summary) Summary {
	out := Summary{}
	sets := newFileSets()

	appendAll := func(dst *[]string, seen map[string]bool, src []string) {
		for _, p := range src {
			addPath(dst, seen, p)
		}
	}
	appendAll(&out.FilesWritten, sets.writtenSeen, base.FilesWritten)
	appendAll(&out.FilesWritten, sets.writtenSeen, delta.FilesWritten)
	appendAll(&out.FilesCreated, sets.createdSeen, base.FilesCreated)
	appendAll(&out.FilesCreated, sets.createdSeen, delta.FilesCreated)
	appendAll(&out.FilesRead, sets.readSeen, base.FilesRead)
	appendAll(&out.FilesRead, sets.readSeen, delta.FilesRead)
	appendAll(&out.FilesDeleted, sets.deletedSeen, base.FilesDeleted)
	appendAll(&out.FilesDeleted, sets.deletedSeen, delta.FilesDeleted)
	appendAll(&out.ToolsUsed, sets.toolsSeen, base.ToolsUsed)
	appendAll(&out.ToolsUsed, sets.toolsSeen, delta.ToolsUsed)

	out.ToolCallCount = base.ToolCallCount + delta.ToolCallCount
	out.BashCommands = append(append([]string{}, base.BashCommands...), delta.BashCommands...)
	out.Errors = append(append([]string{}, base.Errors...), delta.Errors...)
	out.Warnings = append(append([]string{}, base.Warnings...), delta.Warnings...)

	out.FinalMessage = base.FinalMessage
	if delta.FinalMessage != "" {
		out.FinalMessage = delta.FinalMessage
	}
	out.MessageBuffer = base.MessageBuffer
	if delta.MessageBuffer != "" {
		out.MessageBuffer = delta.MessageBuffer
	}
	out.Duration = base.Duration
	if delta.Duration != "" {
		out.Duration = delta.Duration
	}
	return out
}

// GetLastMessages groups message events into boundary-separated runs (a
// run is any consecutive sequence of message events, terminated by either
// complete=true or any non-message event) and returns the concatenated
// text of the last k runs.
func GetLastMessages(ev []events.Event, k int) []string {
	var runs []string
	var cur strings.Builder
	inRun := false

	flush := func() {
		if inRun {
			runs = append(runs, cur.String())
			cur.Reset()
			inRun = false
		}
	}

	for _, e := range ev {
		if e.Type == events.TypeMessage {
			cur.WriteString(e.Content)
			inRun = true
			if e.Complete {
				flush()
			}
			continue
		}
		flush()
	}
	flush()

	if k <= 0 || k >= len(runs) {
		return runs
	}
	return runs[len(runs)-k:]
}

// QuickStatus is a compact per-agent view for list/status displays.
type QuickStatus struct {
	Status        string
	ToolCallCount int
	FilesChanged  int
	Duration      string
}

// GetQuickStatus builds a QuickStatus from an externally-known lifecycle
// status (events carry no status field of their own) and a Summary.
func GetQuickStatus(status string, s Summary) QuickStatus {
	return QuickStatus{
		Status:        status,
		ToolCallCount: s.ToolCallCount,
		FilesChanged:  len(s.FilesWritten) + len(s.FilesCreated) + len(s.FilesDeleted),
		Duration:      s.Duration,
	}
}

// GetStatusSummary renders a one-line human-readable status string for
// list views.
func GetStatusSummary(status string, s Summary) string {
	q := GetQuickStatus(status, s)
	if q.Duration == "" {
		return fmt.Sprintf("%s - %d tool calls, %d files changed", q.Status, q.ToolCallCount, q.FilesChanged)
	}
	return fmt.Sprintf("%s - %d tool calls, %d files changed (%s)", q.Status, q.ToolCallCount, q.FilesChanged, q.Duration)
}
