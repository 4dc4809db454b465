// Command agentmuxctl is a local operator CLI for inspecting agentmuxd's
// on-disk state directly: it never talks to a running daemon over RPC,
// it reads the same meta.json/stdout.log files the daemon itself owns.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/agentcli"
	"github.com/agentmux/agentmux/internal/store"
	"github.com/agentmux/agentmux/internal/summarize"

	_ "github.com/agentmux/agentmux/internal/agentcli/providers/claude"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/codex"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/cursor"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/gemini"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/opencode"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/trae"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentmuxctl: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentmuxctl",
		Short: "Inspect and control agentmux's supervised agents from the command line.",
	}
	root.AddCommand(listCmd(), statusCmd(), tailCmd(), stopCmd(), configCmd())
	return root
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved base directory and effective config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := store.ResolveBaseDir()
			if err != nil {
				return err
			}
			cfg, err := store.LoadConfig(baseDir)
			if err != nil {
				return err
			}
			fmt.Printf("base dir: %s\n\n", baseDir)
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

// loadAll loads every agent directory under the resolved base dir.
func loadAll() ([]*agentcli.Process, error) {
	baseDir, err := store.ResolveBaseDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(baseDir, store.AgentsSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*agentcli.Process
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		if p := loadOne(baseDir, ent.Name()); p != nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Record().StartedAt < out[j].Record().StartedAt })
	return out, nil
}

func loadOne(baseDir, agentID string) *agentcli.Process {
	vendor, ok := agentcli.Lookup(agentTypeOf(agentID))
	if !ok {
		return nil
	}
	// Non-strict: this CLI only reports state, it never owns the clean-
	// shutdown marker, so there's no crash signal to tighten reattachment
	// against here.
	p := agentcli.LoadFromDisk(baseDir, agentID, vendor, false)
	if p == nil {
		return nil
	}
	_ = p.ReadNewEvents()
	return p
}

func agentTypeOf(agentID string) string {
	for i := len(agentID) - 1; i >= 0; i-- {
		if agentID[i] == '-' {
			return agentID[:i]
		}
	}
	return agentID
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every agent this host has ever spawned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := loadAll()
			if err != nil {
				return err
			}
			if len(agents) == 0 {
				fmt.Println(color.HiBlackString("no agents found"))
				return nil
			}
			for _, p := range agents {
				printListLine(p)
			}
			return nil
		},
	}
}

func printListLine(p *agentcli.Process) {
	rec := p.Record()
	s := summarize.Summarize(p.Events())
	statusFn := statusColor(rec.Status)
	fmt.Printf("%-28s %-10s %-12s %s\n",
		rec.AgentID, statusFn(string(rec.Status)), rec.TaskName,
		color.HiBlackString(summarize.GetStatusSummary(string(rec.Status), s)))
}

func statusColor(status agentcli.Status) func(string, ...any) string {
	switch status {
	case agentcli.StatusRunning:
		return color.New(color.FgGreen).SprintfFunc()
	case agentcli.StatusFailed:
		return color.New(color.FgRed).SprintfFunc()
	case agentcli.StatusStopped:
		return color.New(color.FgYellow).SprintfFunc()
	default:
		return color.New(color.FgHiBlack).SprintfFunc()
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <agent_id>",
		Short: "Show a detailed summary for one agent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := store.ResolveBaseDir()
			if err != nil {
				return err
			}
			p := loadOne(baseDir, args[0])
			if p == nil {
				return fmt.Errorf("no such agent %q", args[0])
			}
			rec := p.Record()
			s := summarize.Summarize(p.Events())

			fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(rec.AgentID), statusColor(rec.Status)(string(rec.Status)))
			fmt.Printf("task:      %s\n", rec.TaskName)
			fmt.Printf("vendor:    %s\n", rec.AgentType)
			fmt.Printf("mode:      %s\n", rec.Mode)
			fmt.Printf("cwd:       %s\n", rec.CWD)
			fmt.Printf("started:   %s\n", rec.StartedAt)
			if rec.CompletedAt != "" {
				fmt.Printf("completed: %s\n", rec.CompletedAt)
			}
			fmt.Printf("tool calls: %d\n", s.ToolCallCount)
			fmt.Printf("files written: %v\n", s.FilesWritten)
			fmt.Printf("files read:    %v\n", s.FilesRead)
			if len(s.Errors) > 0 {
				fmt.Printf("errors: %v\n", s.Errors)
			}
			if s.FinalMessage != "" {
				fmt.Printf("\n%s\n", s.FinalMessage)
			}
			return nil
		},
	}
}
