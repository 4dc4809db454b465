// Package gemini implements the agentcli Backend and Parser for the
// Gemini CLI. opencode and trae reuse Parser from this package; both
// vendors' JSONL vocabulary mirrors Gemini's per the normalization rules.
package gemini

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
)

const defaultBinary = "gemini"

// Backend builds command lines for the Gemini CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates a Gemini backend. binary overrides the default "gemini"
// when non-empty.
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: gemini -p <prompt> --output-format json [-m model]
// [--yolo on edit/ralph].
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	if rec.Mode == agentcli.ModeRalph {
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args := []string{"-p", prompt, "--output-format", "json"}
	if model != "" {
		args = append(args, "-m", model)
	}
	if rec.Mode == agentcli.ModeEdit || rec.Mode == agentcli.ModeRalph {
		args = append(args, "--yolo")
	}

	return b.binary, args, nil
}

func init() {
	agentcli.Register("gemini", agentcli.Vendor{Backend: New(""), Parser: Parser{}})
}
