// Package store resolves the on-disk base directory for agent state and
// owns config.json's load/migrate/save cycle plus the clean-shutdown
// marker used to distinguish an orderly restart from a crash.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentmux/agentmux/internal/config"
)

const (
	preferredDirName      = ".agents"
	legacyDirName         = ".swarmify"
	configFileName        = "config.json"
	cleanShutdownFileName = ".clean-shutdown"

	// AgentsSubdir is the per-agent directory name under a base dir.
	AgentsSubdir = "agents"
)

var (
	resolveOnce sync.Once
	resolved    string
	resolveErr  error
)

// ResolveBaseDir returns the base directory for agent state, resolved
// once per process and cached for every subsequent call: preferred
// ~/.agents (created if missing and writable) → legacy ~/.swarmify
// (only if it already exists and is writable) → a temp-directory
// fallback. The chosen directory is logged by the caller on fallback;
// this function only resolves and caches, it does not log.
func ResolveBaseDir() (string, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = resolveBaseDir()
	})
	return resolved, resolveErr
}

func resolveBaseDir() (string, error) {
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		preferred := filepath.Join(home, preferredDirName)
		if ensureWritableDir(preferred) == nil {
			return preferred, nil
		}

		legacy := filepath.Join(home, legacyDirName)
		if info, err := os.Stat(legacy); err == nil && info.IsDir() && isWritable(legacy) {
			return legacy, nil
		}
	}

	tmp, err := os.MkdirTemp("", "agentmux-")
	if err != nil {
		return "", fmt.Errorf("store: no writable base dir (tried %s, %s, and temp): %w", preferredDirName, legacyDirName, err)
	}
	return tmp, nil
}

// FallbackUsed reports whether the resolved base dir is a temp
// directory rather than the preferred or legacy home-relative path,
// used by the caller to decide whether to log a startup warning.
func FallbackUsed(baseDir string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return true
	}
	return baseDir != filepath.Join(home, preferredDirName) && baseDir != filepath.Join(home, legacyDirName)
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if !isWritable(dir) {
		return fmt.Errorf("store: %s not writable", dir)
	}
	return nil
}

func isWritable(dir string) bool {
	probe := filepath.Join(dir, ".write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}

// AgentDir returns the per-agent directory path under baseDir.
func AgentDir(baseDir, agentID string) string {
	return filepath.Join(baseDir, AgentsSubdir, agentID)
}

// ConfigPath returns config.json's path under baseDir.
func ConfigPath(baseDir string) string {
	return filepath.Join(baseDir, configFileName)
}

// LoadConfig reads and validates config.json, filling any missing
// fields from config.Default and migrating the legacy one-key-per-
// enabled-agent shape ({"claude": true, ...}) into the current
// sectioned shape. If no file exists, it writes and returns the
// defaults.
func LoadConfig(baseDir string) (config.Config, error) {
	path := ConfigPath(baseDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := config.Default()
		return cfg, SaveConfig(baseDir, cfg)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("store: read config.json: %w", err)
	}

	if legacy, ok := parseLegacyConfig(data); ok {
		cfg := migrateLegacyConfig(legacy)
		return cfg, SaveConfig(baseDir, cfg)
	}

	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("store: parse config.json: %w", err)
	}
	cfg = config.MergeDefaults(cfg)
	return cfg, nil
}

// parseLegacyConfig recognizes the pre-sectioned shape: a flat JSON
// object mapping agent_type to a bool enabled flag, with no "agents"
// or "providers" key.
func parseLegacyConfig(data []byte) (map[string]bool, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false
	}
	if _, hasAgents := probe["agents"]; hasAgents {
		return nil, false
	}
	if _, hasProviders := probe["providers"]; hasProviders {
		return nil, false
	}

	flags := make(map[string]bool, len(probe))
	for k, v := range probe {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return nil, false
		}
		flags[k] = b
	}
	return flags, true
}

func migrateLegacyConfig(flags map[string]bool) config.Config {
	cfg := config.Default()
	for name := range cfg.Agents {
		if enabled, known := flags[name]; known {
			a := cfg.Agents[name]
			a.Enabled = enabled
			cfg.Agents[name] = a
		}
	}
	return cfg
}

// SaveConfig atomically writes cfg to config.json (temp file + rename).
func SaveConfig(baseDir string, cfg config.Config) error {
	return WriteJSONAtomic(ConfigPath(baseDir), cfg)
}

// WriteJSONAtomic marshals v and writes it to path via a temp file plus
// rename, so readers never observe a truncated file.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir for %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// cleanShutdownPath returns the clean-shutdown marker's path under
// baseDir.
func cleanShutdownPath(baseDir string) string {
	return filepath.Join(baseDir, cleanShutdownFileName)
}

// MarkCleanShutdown writes the clean-shutdown marker. Called from the
// SIGINT/SIGTERM handler just before exit.
func MarkCleanShutdown(baseDir string) error {
	return os.WriteFile(cleanShutdownPath(baseDir), []byte("ok"), 0o644)
}

// ConsumeCleanShutdownMarker reports whether the marker from a prior
// run is present (true: prior run exited orderly; false: prior run
// crashed or this is the first run) and removes it so the next restart
// starts from a clean slate.
func ConsumeCleanShutdownMarker(baseDir string) bool {
	path := cleanShutdownPath(baseDir)
	_, err := os.Stat(path)
	existed := err == nil
	if existed {
		_ = os.Remove(path)
	}
	return existed
}
