package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/config"
)

func TestLoadConfigWritesDefaultsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Agents["claude"].Enabled {
		t.Errorf("expected default config to enable claude")
	}
	if _, err := os.Stat(ConfigPath(dir)); err != nil {
		t.Errorf("expected config.json to be written on first load: %v", err)
	}
}

func TestLoadConfigMergesPartialFile(t *testing.T) {
	dir := t.TempDir()
	partial := `{"agents": {"claude": {"command": "claude", "enabled": false}}}`
	if err := os.WriteFile(ConfigPath(dir), []byte(partial), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Agents["claude"].Enabled {
		t.Errorf("explicit enabled=false must survive merge")
	}
	if _, ok := cfg.Agents["codex"]; !ok {
		t.Errorf("expected missing vendor codex to be filled in from defaults")
	}
}

func TestLoadConfigMigratesLegacyFlatShape(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"claude": true, "codex": false}`
	if err := os.WriteFile(ConfigPath(dir), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Agents["claude"].Enabled {
		t.Errorf("expected claude to stay enabled after legacy migration")
	}
	if cfg.Agents["codex"].Enabled {
		t.Errorf("expected codex disabled per legacy flag")
	}
	if cfg.Agents["codex"].Command == "" {
		t.Errorf("expected migration to fill in the command field from defaults, not just the flag")
	}

	// Migration should have rewritten config.json into the sectioned shape.
	raw, err := os.ReadFile(ConfigPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	var reloaded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &reloaded); err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded["agents"]; !ok {
		t.Errorf("expected rewritten config.json to use the sectioned shape")
	}
}

func TestSaveConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Agents["claude"] = config.Agent{
		Command: "claude", Enabled: true,
		Models: map[agentcli.Effort]string{agentcli.EffortDefault: "custom-model"},
	}

	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	reloaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := reloaded.Agents["claude"].Models[agentcli.EffortDefault]; got != "custom-model" {
		t.Errorf("round trip lost custom model override, got %q", got)
	}
}

func TestWriteJSONAtomicLeavesNoTempFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "thing.json")
	if err := WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected no leftover .tmp file, stat err = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]int
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["a"] != 1 {
		t.Errorf("got %v", out)
	}
}

func TestCleanShutdownMarkerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if ConsumeCleanShutdownMarker(dir) {
		t.Errorf("expected no marker on a fresh base dir")
	}
	if err := MarkCleanShutdown(dir); err != nil {
		t.Fatalf("MarkCleanShutdown: %v", err)
	}
	if !ConsumeCleanShutdownMarker(dir) {
		t.Errorf("expected marker to be present after MarkCleanShutdown")
	}
	if ConsumeCleanShutdownMarker(dir) {
		t.Errorf("expected marker to be consumed (removed) by the first check")
	}
}

func TestAgentDirAndConfigPath(t *testing.T) {
	if got, want := AgentDir("/base", "claude-abc"), filepath.Join("/base", "agents", "claude-abc"); got != want {
		t.Errorf("AgentDir = %q, want %q", got, want)
	}
	if got, want := ConfigPath("/base"), filepath.Join("/base", "config.json"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}
