package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/store"
)

// stopCmd sends the same process-group SIGTERM-then-SIGKILL sequence
// the daemon uses, directly from the operator's process. There's no
// requirement that the daemon be running for agentmuxctl stop to work,
// since the agent subprocess's PID and process group don't depend on
// the daemon staying alive.
func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <agent_id>",
		Short: "Stop a running agent.",
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
			stopped, err := p.Stop()
			if err != nil {
				return err
			}
			if !stopped {
				fmt.Println(color.HiBlackString("%s was already stopped", args[0]))
				return nil
			}
			fmt.Println(color.New(color.FgYellow).Sprintf("%s stopped", args[0]))
			return nil
		},
	}
}
