// Package pathutil provides pure path helpers shared by the manager and
// the agent process: computing a longest-common-ancestor workspace root
// for a group of agent working directories, and rejecting spawns whose
// cwd is itself a protected system root or $HOME (subdirectories of
// those are allowed).
package pathutil

import (
	"path/filepath"
	"strings"
)

// dangerousRoots are cwds no agent may be spawned in. Matched after
// filepath.Clean so "/usr/" and "/usr" are equivalent.
var dangerousRoots = map[string]bool{
	"/":       true,
	"/usr":    true,
	"/bin":    true,
	"/sbin":   true,
	"/etc":    true,
	"/System": true,
}

// IsDangerousPath reports whether cwd is, or resolves to, a protected
// root. homeDir is the caller's resolved $HOME, which is also protected.
func IsDangerousPath(cwd, homeDir string) bool {
	clean := filepath.Clean(cwd)
	if homeDir != "" && clean == filepath.Clean(homeDir) {
		return true
	}
	return dangerousRoots[clean]
}

// LongestCommonAncestor returns the longest common ancestor directory of
// paths, or "" if paths is empty or shares no common segment. Blank and
// whitespace-only entries are ignored before computing the ancestor.
//
// Inputs are cleaned (not resolved against the filesystem: no symlink
// evaluation, no existence check) so this stays a pure function.
func LongestCommonAncestor(paths []string) string {
	segs := make([][]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		clean := filepath.Clean(p)
		if !filepath.IsAbs(clean) {
			continue
		}
		segs = append(segs, splitPath(clean))
	}
	if len(segs) == 0 {
		return ""
	}

	common := segs[0]
	for _, s := range segs[1:] {
		common = commonPrefix(common, s)
		if len(common) == 0 {
			return ""
		}
	}
	if len(common) == 0 {
		return ""
	}
	return "/" + strings.Join(common, "/")
}

// splitPath splits a cleaned absolute path into non-empty segments.
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// commonPrefix returns the shared leading segments of a and b.
func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
