// Package vendorutil holds the small pieces of command-building logic
// shared across every vendor Backend: ralph mode's preamble and its
// disable switch.
package vendorutil

import (
	"fmt"
	"os"
)

const defaultRalphFile = "RALPH.md"

// RalphFile returns the ralph task filename, honoring
// AGENTS_MCP_RALPH_FILE when set.
func RalphFile() string {
	if v := os.Getenv("AGENTS_MCP_RALPH_FILE"); v != "" {
		return v
	}
	return defaultRalphFile
}

// RalphDisabled reports whether AGENTS_MCP_DISABLE_RALPH is set to a
// truthy value.
func RalphDisabled() bool {
	switch os.Getenv("AGENTS_MCP_DISABLE_RALPH") {
	case "1", "true", "TRUE", "yes":
		return true
	default:
		return false
	}
}

// RalphPreamble builds the autonomous-loop prompt prefix referencing the
// ralph task file in cwd, prepended ahead of the caller's prompt.
func RalphPreamble(cwd string) string {
	return fmt.Sprintf(
		"You are running in autonomous ralph mode. Read %s/%s, perform the "+
			"next outstanding step, update it, and stop once the file shows "+
			"no remaining work.\n",
		cwd, RalphFile(),
	)
}
