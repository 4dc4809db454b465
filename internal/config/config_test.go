package config

import (
	"testing"

	"github.com/agentmux/agentmux/internal/agentcli"
)

func TestDefaultEnabledAgents(t *testing.T) {
	cfg := Default()
	enabled := map[string]bool{}
	for _, name := range cfg.EnabledAgents() {
		enabled[name] = true
	}

	for _, name := range []string{"claude", "codex", "gemini", "cursor", "opencode"} {
		if !enabled[name] {
			t.Errorf("expected %q enabled by default", name)
		}
	}
	if enabled["trae"] {
		t.Errorf("expected trae disabled by default")
	}
}

func TestModelResolvesPerEffort(t *testing.T) {
	cfg := Default()
	cases := []struct {
		vendor string
		effort agentcli.Effort
		want   string
	}{
		{"claude", agentcli.EffortFast, "claude-haiku-4-5"},
		{"claude", agentcli.EffortDefault, "claude-sonnet-4-5"},
		{"codex", agentcli.EffortDetailed, "gpt-5-pro"},
		{"unknown-vendor", agentcli.EffortDefault, ""},
	}
	for _, c := range cases {
		if got := cfg.Model(c.vendor, c.effort); got != c.want {
			t.Errorf("Model(%q, %q) = %q, want %q", c.vendor, c.effort, got, c.want)
		}
	}
}

func TestMergeDefaultsFillsMissingVendor(t *testing.T) {
	partial := Config{
		Agents: map[string]Agent{
			"claude": {Command: "claude", Enabled: false},
		},
	}
	merged := MergeDefaults(partial)

	if _, ok := merged.Agents["codex"]; !ok {
		t.Fatalf("expected codex to be filled in from defaults")
	}
	if merged.Agents["claude"].Enabled {
		t.Errorf("MergeDefaults must not override an explicitly-set field")
	}
	if got := merged.Agents["claude"].Models[agentcli.EffortDefault]; got != "claude-sonnet-4-5" {
		t.Errorf("expected missing Models map to be filled from defaults, got %q", got)
	}
}

func TestMergeDefaultsFillsMissingModelOnly(t *testing.T) {
	partial := Config{
		Agents: map[string]Agent{
			"claude": {
				Command: "claude", Enabled: true,
				Models: map[agentcli.Effort]string{agentcli.EffortFast: "custom-fast"},
			},
		},
	}
	merged := MergeDefaults(partial)

	m := merged.Agents["claude"].Models
	if m[agentcli.EffortFast] != "custom-fast" {
		t.Errorf("expected explicit fast model kept, got %q", m[agentcli.EffortFast])
	}
	if m[agentcli.EffortDefault] != "claude-sonnet-4-5" {
		t.Errorf("expected default-effort model filled in, got %q", m[agentcli.EffortDefault])
	}
}

func TestMergeDefaultsLeavesUnknownVendorAlone(t *testing.T) {
	partial := Config{
		Agents: map[string]Agent{
			"some-future-cli": {Command: "futurecli", Enabled: true},
		},
	}
	merged := MergeDefaults(partial)
	if merged.Agents["some-future-cli"].Command != "futurecli" {
		t.Errorf("expected unrecognized vendor entries to survive MergeDefaults untouched")
	}
}

func TestMergeDefaultsFillsProviders(t *testing.T) {
	merged := MergeDefaults(Config{})
	if merged.Providers["anthropic"].APIEndpoint == "" {
		t.Errorf("expected anthropic provider endpoint to be seeded")
	}
}
