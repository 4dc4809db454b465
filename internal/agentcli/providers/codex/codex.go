// Package codex implements the agentcli Backend and Parser for the Codex
// CLI's `exec` mode.
package codex

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
)

const defaultBinary = "codex"

// Backend builds command lines for the Codex CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates a Codex backend. binary overrides the default "codex" when
// non-empty.
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: codex exec --json [-m model] [--sandbox policy]
// [--full-auto] -- <prompt>
//
// Mode maps to Codex's sandbox policy: plan → read-only (no full-auto,
// the read-only sandbox defeats the point); edit → workspace-write with
// --full-auto; ralph → full-auto with danger-full-access, the maximal
// permission combination, plus the autonomous-loop preamble.
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	args := []string{"exec", "--json"}
	if model != "" {
		args = append(args, "-m", model)
	}

	switch rec.Mode {
	case agentcli.ModePlan:
		args = append(args, "--sandbox", "read-only")
	case agentcli.ModeEdit:
		args = append(args, "--sandbox", "workspace-write", "--full-auto")
	case agentcli.ModeRalph:
		args = append(args, "--sandbox", "danger-full-access", "--full-auto")
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args = append(args, "--", prompt)
	return b.binary, args, nil
}

func init() {
	agentcli.Register("codex", agentcli.Vendor{Backend: New(""), Parser: Parser{}})
}
