// Package agentcli supervises one coding-CLI child process per agent:
// building its command line, spawning it in its own process group, tailing
// its stdout log into normalized events, and deriving a terminal status
// when the process exits. Contracts are defined at the consumer side,
// following the vendor-package-per-implementation convention used
// throughout this codebase's engine layer.
package agentcli

import "errors"

// Mode controls how permissive a spawned agent is.
type Mode string

const (
	ModePlan  Mode = "plan"  // read-only; no file mutation flags
	ModeEdit  Mode = "edit"  // writes permitted
	ModeRalph Mode = "ralph" // autonomous loop over a task file
)

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePlan, ModeEdit, ModeRalph:
		return true
	default:
		return false
	}
}

// Effort selects a model tier, mapped per-vendor to a concrete model name.
type Effort string

const (
	EffortFast     Effort = "fast"
	EffortDefault  Effort = "default"
	EffortDetailed Effort = "detailed"
)

// Valid reports whether e is a recognized effort.
func (e Effort) Valid() bool {
	switch e {
	case EffortFast, EffortDefault, EffortDetailed:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a supervised agent process.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Sentinel errors surfaced by Spawn and the process lifecycle. Callers at
// the RPC boundary map these to the error taxonomy's string kinds.
var (
	// ErrDangerousPath indicates cwd (or a ralph target) is one of the
	// protected system roots or $HOME itself.
	ErrDangerousPath = errors.New("agentcli: dangerous path")

	// ErrRalphDisabled indicates ralph mode was requested while disabled
	// via AGENTS_MCP_DISABLE_RALPH.
	ErrRalphDisabled = errors.New("agentcli: ralph mode disabled")

	// ErrInvalidMode indicates an unrecognized Mode.
	ErrInvalidMode = errors.New("agentcli: invalid mode")

	// ErrInvalidEffort indicates an unrecognized Effort.
	ErrInvalidEffort = errors.New("agentcli: invalid effort")
)

// Record is the persisted and in-memory representation of one agent.
// Field names and JSON tags mirror the on-disk meta.json shape exactly.
type Record struct {
	AgentID         string `json:"agent_id"`
	TaskName        string `json:"task_name"`
	AgentType       string `json:"agent_type"`
	Prompt          string `json:"prompt"`
	CWD             string `json:"cwd"`
	Mode            Mode   `json:"mode"`
	Effort          Effort `json:"effort"`
	PID             int    `json:"pid"`
	Status          Status `json:"status"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	ParentSessionID string `json:"parent_session_id,omitempty"`
	WorkspaceDir    string `json:"workspace_dir,omitempty"`

	// CommandLine is the resolved binary plus its argv, captured at spawn
	// time. Rehydration compares a live PID's actual /proc/<pid>/cmdline
	// against this before trusting it as the same process: the
	// status=running ⇔ pid exists AND command line matches invariant.
	CommandLine []string `json:"command_line,omitempty"`

	// BaseDir is the resolved store root this agent's directory lives
	// under. Not persisted in meta.json (it's implied by where the file
	// was read from); populated by the manager on spawn and by
	// LoadFromDisk on rehydrate.
	BaseDir string `json:"-"`
}
