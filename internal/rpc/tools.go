package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/apierr"
	"github.com/agentmux/agentmux/internal/events"
	"github.com/agentmux/agentmux/internal/manager"
	"github.com/agentmux/agentmux/internal/summarize"
)

// registerTools installs the four MCP tools this server exposes:
// Spawn, Status, Stop, Tasks (§4.7). Descriptions are computed at
// tools/list time rather than once at startup so they pick up the
// current enabled-vendor set and version-update notice.
func (s *Server) registerTools() {
	s.tools = []tool{
		{
			name: "Spawn",
			inputSchema: jsonSchema(map[string]any{
				"task_name":  stringProp("Groups related agents under one task."),
				"agent_type": stringProp("Vendor CLI to spawn: one of the enabled agents listed below."),
				"prompt":     stringProp("The instruction given to the spawned agent."),
				"cwd":        stringProp("Working directory for the spawned process. Defaults to the server's cwd."),
				"mode":       stringProp("plan (read-only), edit (writes permitted), or ralph (autonomous loop). Default edit."),
				"effort":     stringProp("fast, default, or detailed. Default default."),
			}, []string{"task_name", "agent_type", "prompt"}),
			describe: func() string {
				return "Spawn a coding-agent CLI as a supervised child process." + s.describeBase(context.Background())
			},
			execute: s.spawnTool,
		},
		{
			name: "Status",
			inputSchema: jsonSchema(map[string]any{
				"task_name":         stringProp("Task to report on. Either this or parent_session_id is required."),
				"parent_session_id": stringProp("Parent session to report on. Either this or task_name is required."),
				"filter":            stringProp("running (default), completed, failed, stopped, or all."),
				"since":             stringProp("RFC3339 timestamp or integer event index; only report events after this cursor."),
				"min_priority":      stringProp("critical, important, or verbose (default). Drops lower-priority events from the summary."),
			}, nil),
			describe: func() string {
				return "Report status and output summaries for agents in a task or parent session." + s.describeBase(context.Background())
			},
			execute: s.statusTool,
		},
		{
			name: "Stop",
			inputSchema: jsonSchema(map[string]any{
				"task_name": stringProp("Task whose agents should be stopped."),
				"agent_id":  stringProp("Stop only this agent within the task, instead of every agent in it."),
			}, []string{"task_name"}),
			describe: func() string {
				return "Stop one agent or every agent in a task." + s.describeBase(context.Background())
			},
			execute: s.stopTool,
		},
		{
			name: "Tasks",
			inputSchema: jsonSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Maximum tasks to return. Default 10."},
			}, nil),
			describe: func() string {
				return "List tasks sorted by most recent agent activity." + s.describeBase(context.Background())
			},
			execute: s.tasksTool,
		},
	}
}

func jsonSchema(props map[string]any, required []string) any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// agentDetail is the per-agent record returned by Status.
type agentDetail struct {
	AgentID         string            `json:"agent_id"`
	TaskName        string            `json:"task_name"`
	AgentType       string            `json:"agent_type"`
	Status          agentcli.Status   `json:"status"`
	Mode            agentcli.Mode     `json:"mode"`
	Effort          agentcli.Effort   `json:"effort"`
	CWD             string            `json:"cwd"`
	PID             int               `json:"pid"`
	StartedAt       string            `json:"started_at"`
	CompletedAt     string            `json:"completed_at,omitempty"`
	ParentSessionID string            `json:"parent_session_id,omitempty"`
	Summary         summarize.Summary `json:"summary"`
	Delta           *summarize.Delta  `json:"delta,omitempty"`
	Cursor          string            `json:"cursor,omitempty"`
}

func detailFor(p *agentcli.Process, since *sinceCursor, minPriority events.Priority) agentDetail {
	rec := p.Record()
	ev := p.Events()
	if minPriority != "" {
		ev = events.ByMinPriority(ev, minPriority)
	}

	d := agentDetail{
		AgentID: rec.AgentID, TaskName: rec.TaskName, AgentType: rec.AgentType,
		Status: rec.Status, Mode: rec.Mode, Effort: rec.Effort, CWD: rec.CWD, PID: rec.PID,
		StartedAt: rec.StartedAt, CompletedAt: rec.CompletedAt, ParentSessionID: rec.ParentSessionID,
	}

	if since != nil {
		var delta summarize.Delta
		if since.index != nil {
			delta = summarize.GetDeltaAt(ev, *since.index)
		} else {
			delta = summarize.GetDeltaSince(ev, since.timestamp)
		}
		d.Summary = delta.Summary
		d.Delta = &delta
		if !delta.Cursor.IsZero() {
			d.Cursor = delta.Cursor.Format(time.RFC3339Nano)
		}
	} else {
		d.Summary = summarize.Summarize(ev)
		if len(ev) > 0 {
			d.Cursor = ev[len(ev)-1].Timestamp.Format(time.RFC3339Nano)
		}
	}
	return d
}

// --- Spawn ---

type spawnArgs struct {
	TaskName  string          `json:"task_name"`
	AgentType string          `json:"agent_type"`
	Prompt    string          `json:"prompt"`
	CWD       string          `json:"cwd"`
	Mode      agentcli.Mode   `json:"mode"`
	Effort    agentcli.Effort `json:"effort"`
}

type spawnResult struct {
	TaskName  string          `json:"task_name"`
	AgentID   string          `json:"agent_id"`
	AgentType string          `json:"agent_type"`
	Status    agentcli.Status `json:"status"`
	StartedAt string          `json:"started_at"`
}

func (s *Server) spawnTool(ctx context.Context, raw json.RawMessage) ToolCallResult {
	var args spawnArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return errorResult(apierr.New(apierr.InvalidArgument, "invalid arguments: %v", err))
	}
	if args.CWD == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errorResult(apierr.New(apierr.InvalidArgument, "cwd is required (server cwd unavailable: %v)", err))
		}
		args.CWD = wd
	}

	// The host identifies itself through the environment it launched this
	// server with; spawned children inherit the same grouping.
	p, err := s.mgr.Spawn(manager.SpawnRequest{
		TaskName: args.TaskName, AgentType: args.AgentType, Prompt: args.Prompt,
		CWD: args.CWD, Mode: args.Mode, Effort: args.Effort,
		ParentSessionID: os.Getenv("AGENT_SESSION_ID"),
		WorkspaceDir:    os.Getenv("AGENT_WORKSPACE_DIR"),
	})
	if err != nil {
		return errorResult(err)
	}

	rec := p.Record()
	return textResult(spawnResult{
		TaskName: rec.TaskName, AgentID: rec.AgentID, AgentType: rec.AgentType,
		Status: rec.Status, StartedAt: rec.StartedAt,
	})
}

// --- Status ---

type statusArgs struct {
	TaskName        string `json:"task_name"`
	ParentSessionID string `json:"parent_session_id"`
	Filter          string `json:"filter"`
	Since           string `json:"since"`
	MinPriority     string `json:"min_priority"`
}

type taskStatusResult struct {
	TaskName string        `json:"task_name,omitempty"`
	Count    int           `json:"count"`
	Agents   []agentDetail `json:"agents"`
}

func (s *Server) statusTool(ctx context.Context, raw json.RawMessage) ToolCallResult {
	var args statusArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return errorResult(apierr.New(apierr.InvalidArgument, "invalid arguments: %v", err))
	}
	if args.TaskName == "" && args.ParentSessionID == "" {
		return errorResult(apierr.New(apierr.InvalidArgument, "task_name or parent_session_id is required"))
	}
	filter := args.Filter
	if filter == "" {
		filter = "running"
	}

	var agents []*agentcli.Process
	if args.TaskName != "" {
		agents = s.mgr.ListByTask(ctx, args.TaskName)
	} else {
		agents = s.mgr.ListByParentSession(ctx, args.ParentSessionID)
	}
	agents = filterByStatus(agents, filter)

	since, err := parseSince(args.Since)
	if err != nil {
		return errorResult(apierr.New(apierr.InvalidArgument, "invalid since: %v", err))
	}
	minPriority, err := parseMinPriority(args.MinPriority)
	if err != nil {
		return errorResult(apierr.New(apierr.InvalidArgument, "invalid min_priority: %v", err))
	}

	details := make([]agentDetail, 0, len(agents))
	for _, p := range agents {
		details = append(details, detailFor(p, since, minPriority))
	}
	sort.Slice(details, func(i, j int) bool { return details[i].StartedAt < details[j].StartedAt })

	return textResult(taskStatusResult{TaskName: args.TaskName, Count: len(details), Agents: details})
}

func filterByStatus(agents []*agentcli.Process, filter string) []*agentcli.Process {
	if filter == "all" {
		return agents
	}
	out := make([]*agentcli.Process, 0, len(agents))
	for _, p := range agents {
		if string(p.Record().Status) == filter {
			out = append(out, p)
		}
	}
	return out
}

// sinceCursor is a parsed Status "since" argument: either a timestamp
// (strict timestamp > since) or an integer event index (slice cursor).
type sinceCursor struct {
	timestamp time.Time
	index     *int
}

// parseSince accepts either an RFC3339 timestamp or a bare integer
// event index. A blank string means no cursor.
func parseSince(since string) (*sinceCursor, error) {
	if since == "" {
		return nil, nil
	}
	if idx, err := strconv.Atoi(since); err == nil {
		return &sinceCursor{index: &idx}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, since)
	if err != nil {
		return nil, fmt.Errorf("since must be an RFC3339 timestamp or integer event index: %w", err)
	}
	return &sinceCursor{timestamp: t}, nil
}

// parseMinPriority validates the min_priority argument, returning "" for
// a blank value (no filtering).
func parseMinPriority(s string) (events.Priority, error) {
	switch events.Priority(s) {
	case "":
		return "", nil
	case events.PriorityCritical, events.PriorityImportant, events.PriorityVerbose:
		return events.Priority(s), nil
	default:
		return "", fmt.Errorf("must be critical, important, or verbose, got %q", s)
	}
}

// --- Stop ---

type stopArgs struct {
	TaskName string `json:"task_name"`
	AgentID  string `json:"agent_id"`
}

func (s *Server) stopTool(ctx context.Context, raw json.RawMessage) ToolCallResult {
	var args stopArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return errorResult(apierr.New(apierr.InvalidArgument, "invalid arguments: %v", err))
	}
	if args.TaskName == "" {
		return errorResult(apierr.New(apierr.InvalidArgument, "task_name is required"))
	}

	if args.AgentID != "" {
		// agent_id narrows the stop to one agent within task_name; an
		// agent belonging to a different task is not found here, never
		// stopped, so one task's Stop can't reach into another's agents.
		p, ok := s.mgr.Get(args.AgentID)
		if !ok || p.Record().TaskName != args.TaskName {
			return errorResult(apierr.New(apierr.NotFound, "no agent %q in task %q", args.AgentID, args.TaskName))
		}
		res, err := s.mgr.Stop(args.AgentID)
		if err != nil {
			return errorResult(err)
		}
		return textResult(res)
	}

	res := s.mgr.StopByTask(ctx, args.TaskName)
	return textResult(res)
}

// --- Tasks ---

type taskSummary struct {
	TaskName     string    `json:"task_name"`
	AgentCount   int       `json:"agent_count"`
	RunningCount int       `json:"running_count"`
	LastActivity time.Time `json:"last_activity"`
}

type tasksArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) tasksTool(ctx context.Context, raw json.RawMessage) ToolCallResult {
	var args tasksArgs
	_ = json.Unmarshal(raw, &args)
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	byTask := map[string]*taskSummary{}
	for _, p := range s.mgr.ListAll(ctx) {
		rec := p.Record()
		t, ok := byTask[rec.TaskName]
		if !ok {
			t = &taskSummary{TaskName: rec.TaskName}
			byTask[rec.TaskName] = t
		}
		t.AgentCount++
		if rec.Status == agentcli.StatusRunning {
			t.RunningCount++
		}
		activity := lastActivity(rec)
		if activity.After(t.LastActivity) {
			t.LastActivity = activity
		}
	}

	out := make([]taskSummary, 0, len(byTask))
	for _, t := range byTask {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	if len(out) > limit {
		out = out[:limit]
	}

	return textResult(map[string]any{"tasks": out})
}

func lastActivity(rec agentcli.Record) time.Time {
	if rec.CompletedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, rec.CompletedAt); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.StartedAt); err == nil {
		return t
	}
	return time.Time{}
}
