// Package config defines the vendor descriptor and provider-endpoint
// tables persisted as config.json: command templates, capability flags,
// the effort→model map per vendor, and the enabled-agent set. Shape and
// defaults live here; internal/store owns where the file lives on disk
// and how it's loaded, migrated, and written back.
package config

import "github.com/agentmux/agentmux/internal/agentcli"

// Agent describes one vendor's CLI integration as recorded in
// config.json's "agents" section.
type Agent struct {
	Command  string                     `json:"command"`
	Enabled  bool                       `json:"enabled"`
	Models   map[agentcli.Effort]string `json:"models"`
	Provider string                     `json:"provider,omitempty"`
	Variable string                     `json:"variableSyntax,omitempty"`
	Caps     Capabilities               `json:"capabilities,omitempty"`
}

// Capabilities records which host-integration surfaces a vendor's CLI
// supports, informing RPC tool-description text and future feature gates.
type Capabilities struct {
	MCP       bool `json:"mcp,omitempty"`
	Hooks     bool `json:"hooks,omitempty"`
	Skills    bool `json:"skills,omitempty"`
	Allowlist bool `json:"allowlist,omitempty"`
}

// Provider describes one upstream model provider's endpoint.
type Provider struct {
	APIEndpoint string `json:"apiEndpoint"`
}

// Config is the full config.json shape.
type Config struct {
	Agents    map[string]Agent    `json:"agents"`
	Providers map[string]Provider `json:"providers"`
}

// Default returns the built-in descriptor table for every vendor this
// codebase ships a Backend/Parser for. Used to seed config.json on first
// run and to fill missing fields on every subsequent load.
func Default() Config {
	return Config{
		Agents: map[string]Agent{
			"claude": {
				Command: "claude", Enabled: true, Provider: "anthropic",
				Variable: "$ARGUMENTS",
				Models: map[agentcli.Effort]string{
					agentcli.EffortFast: "claude-haiku-4-5", agentcli.EffortDefault: "claude-sonnet-4-5", agentcli.EffortDetailed: "claude-opus-4-5",
				},
				Caps: Capabilities{MCP: true, Hooks: true, Skills: true, Allowlist: true},
			},
			"codex": {
				Command: "codex", Enabled: true, Provider: "openai",
				Variable: "{{args}}",
				Models: map[agentcli.Effort]string{
					agentcli.EffortFast: "gpt-5-mini", agentcli.EffortDefault: "gpt-5", agentcli.EffortDetailed: "gpt-5-pro",
				},
				Caps: Capabilities{MCP: true, Allowlist: true},
			},
			"gemini": {
				Command: "gemini", Enabled: true, Provider: "google",
				Variable: "{{args}}",
				Models: map[agentcli.Effort]string{
					agentcli.EffortFast: "gemini-2.5-flash", agentcli.EffortDefault: "gemini-2.5-pro", agentcli.EffortDetailed: "gemini-2.5-pro",
				},
				Caps: Capabilities{MCP: true, Allowlist: true},
			},
			"cursor": {
				Command: "cursor-agent", Enabled: true, Provider: "anthropic",
				Variable: "$ARGUMENTS",
				Models: map[agentcli.Effort]string{
					agentcli.EffortFast: "claude-haiku-4-5", agentcli.EffortDefault: "claude-sonnet-4-5", agentcli.EffortDetailed: "claude-opus-4-5",
				},
				Caps: Capabilities{Allowlist: true},
			},
			"opencode": {
				Command: "opencode", Enabled: true, Provider: "openai",
				Variable: "{{args}}",
				Models: map[agentcli.Effort]string{
					agentcli.EffortFast: "gpt-5-mini", agentcli.EffortDefault: "gpt-5", agentcli.EffortDetailed: "gpt-5-pro",
				},
				Caps: Capabilities{MCP: true, Allowlist: true},
			},
			"trae": {
				Command: "trae", Enabled: false, Provider: "",
				Variable: "{{args}}",
				Models:   map[agentcli.Effort]string{},
				Caps:     Capabilities{},
			},
		},
		Providers: map[string]Provider{
			"anthropic": {APIEndpoint: "https://api.anthropic.com"},
			"openai":    {APIEndpoint: "https://api.openai.com"},
			"google":    {APIEndpoint: "https://generativelanguage.googleapis.com"},
		},
	}
}

// EnabledAgents returns the agent_type set with Enabled=true, used by
// the RPC tool-description enumeration.
func (c Config) EnabledAgents() []string {
	out := make([]string, 0, len(c.Agents))
	for name, a := range c.Agents {
		if a.Enabled {
			out = append(out, name)
		}
	}
	return out
}

// Model resolves the model name for vendor/effort from this config,
// returning "" if unset; the caller falls back to the vendor CLI's own
// default when this is empty.
func (c Config) Model(vendor string, effort agentcli.Effort) string {
	a, ok := c.Agents[vendor]
	if !ok {
		return ""
	}
	return a.Models[effort]
}

// MergeDefaults fills zero-value fields in c from Default(), for
// backward compatibility with partially-populated or older config.json
// files: missing vendors are added wholesale; on existing vendors an
// empty command, provider or variable syntax and any missing per-effort
// model are filled individually, while Enabled and the capability flags
// are kept exactly as given. Unknown vendors already in
// c are left untouched (config.json may list a vendor this build
// doesn't ship, e.g. during a rollback).
func MergeDefaults(c Config) Config {
	def := Default()
	if c.Agents == nil {
		c.Agents = map[string]Agent{}
	}
	for name, defAgent := range def.Agents {
		a, ok := c.Agents[name]
		if !ok {
			c.Agents[name] = defAgent
			continue
		}
		if a.Command == "" {
			a.Command = defAgent.Command
		}
		if a.Provider == "" {
			a.Provider = defAgent.Provider
		}
		if a.Variable == "" {
			a.Variable = defAgent.Variable
		}
		if a.Models == nil {
			a.Models = defAgent.Models
		} else {
			for effort, model := range defAgent.Models {
				if _, set := a.Models[effort]; !set {
					a.Models[effort] = model
				}
			}
		}
		c.Agents[name] = a
	}
	if c.Providers == nil {
		c.Providers = map[string]Provider{}
	}
	for name, p := range def.Providers {
		if _, ok := c.Providers[name]; !ok {
			c.Providers[name] = p
		}
	}
	return c
}
