// Package trae implements the agentcli Backend for the Trae CLI.
//
// Trae's JSONL dialect is undocumented; it is treated as textually
// identical to Gemini's tool/event vocabulary until a real sample shows
// otherwise (see the documented open-question decision). This package
// reuses gemini.Parser directly rather than inventing a dispatch table
// against an assumption.
package trae

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
	"github.com/agentmux/agentmux/internal/agentcli/providers/gemini"
)

const defaultBinary = "trae"

// Backend builds command lines for the Trae CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates a Trae backend. binary overrides the default "trae" when
// non-empty.
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: trae -p <prompt> --json [-m model] [--auto-approve
// on edit/ralph]. Flag names follow Gemini's shape since Trae's actual
// CLI surface is unspecified.
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	if rec.Mode == agentcli.ModeRalph {
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args := []string{"-p", prompt, "--json"}
	if model != "" {
		args = append(args, "-m", model)
	}
	if rec.Mode == agentcli.ModeEdit || rec.Mode == agentcli.ModeRalph {
		args = append(args, "--auto-approve")
	}

	return b.binary, args, nil
}

func init() {
	agentcli.Register("trae", agentcli.Vendor{Backend: New(""), Parser: gemini.Parser{}})
}
