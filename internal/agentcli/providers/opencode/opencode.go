// Package opencode implements the agentcli Backend for the OpenCode CLI.
// Its JSONL vocabulary mirrors Gemini's, so this package reuses
// gemini.Parser rather than duplicating the dispatch table.
package opencode

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
	"github.com/agentmux/agentmux/internal/agentcli/providers/gemini"
)

const defaultBinary = "opencode"

// Backend builds command lines for the OpenCode CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates an OpenCode backend. binary overrides the default
// "opencode" when non-empty.
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: opencode run <prompt> --print-logs [--model model]
// [--permission allow on edit/ralph].
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	if rec.Mode == agentcli.ModeRalph {
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args := []string{"run", prompt, "--print-logs"}
	if model != "" {
		args = append(args, "--model", model)
	}
	if rec.Mode == agentcli.ModeEdit || rec.Mode == agentcli.ModeRalph {
		args = append(args, "--permission", "allow")
	}

	return b.binary, args, nil
}

func init() {
	agentcli.Register("opencode", agentcli.Vendor{Backend: New(""), Parser: gemini.Parser{}})
}
