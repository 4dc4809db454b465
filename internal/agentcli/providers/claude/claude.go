// Package claude implements the agentcli Backend and Parser for the
// Claude Code CLI. The cursor vendor package reuses Parser from this
// package verbatim; Cursor's JSONL dialect mirrors Claude's per the
// normalization rules.
package claude

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
)

const defaultBinary = "claude"

// Backend builds command lines for the Claude Code CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates a Claude backend. binary overrides the default "claude"
// when non-empty (config.json's per-vendor command override).
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: claude -p <prompt> --output-format stream-json
// --verbose [--model <model>] [--permission-mode <mode>]
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	if rec.Mode == agentcli.ModeRalph {
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args := []string{"-p", prompt, "--output-format", "stream-json", "--verbose"}
	if model != "" {
		args = append(args, "--model", model)
	}

	switch rec.Mode {
	case agentcli.ModePlan:
		args = append(args, "--permission-mode", "plan")
	case agentcli.ModeEdit:
		args = append(args, "--permission-mode", "acceptEdits")
	case agentcli.ModeRalph:
		args = append(args, "--permission-mode", "bypassPermissions")
	}

	return b.binary, args, nil
}

func init() {
	agentcli.Register("claude", agentcli.Vendor{Backend: New(""), Parser: Parser{}})
}
