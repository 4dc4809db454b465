// Package cursor implements the agentcli Backend for the Cursor CLI.
// Its JSONL dialect is textually identical to Claude's, so this package
// reuses claude.Parser directly rather than duplicating the dispatch
// table.
package cursor

import (
	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/agentcli/internal/vendorutil"
	"github.com/agentmux/agentmux/internal/agentcli/providers/claude"
)

const defaultBinary = "cursor-agent"

// Backend builds command lines for the Cursor CLI.
type Backend struct {
	binary string
}

var _ agentcli.Backend = (*Backend)(nil)

// New creates a Cursor backend. binary overrides the default
// "cursor-agent" when non-empty.
func New(binary string) *Backend {
	if binary == "" {
		binary = defaultBinary
	}
	return &Backend{binary: binary}
}

// SpawnArgs builds: cursor-agent -p <prompt> --output-format stream-json
// [--model <model>] [-f on edit/ralph].
func (b *Backend) SpawnArgs(rec agentcli.Record, model string) (string, []string, error) {
	if !rec.Mode.Valid() {
		return "", nil, agentcli.ErrInvalidMode
	}

	prompt := rec.Prompt
	if rec.Mode == agentcli.ModeRalph {
		prompt = vendorutil.RalphPreamble(rec.CWD) + "\n" + prompt
	}

	args := []string{"-p", prompt, "--output-format", "stream-json"}
	if model != "" {
		args = append(args, "--model", model)
	}
	if rec.Mode == agentcli.ModeEdit || rec.Mode == agentcli.ModeRalph {
		args = append(args, "-f")
	}

	return b.binary, args, nil
}

func init() {
	agentcli.Register("cursor", agentcli.Vendor{Backend: New(""), Parser: claude.Parser{}})
}
