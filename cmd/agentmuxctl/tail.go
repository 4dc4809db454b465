package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/store"
)

func tailCmd() *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "tail <agent_id>",
		Short: "Print the tail of an agent's raw stdout log.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := store.ResolveBaseDir()
			if err != nil {
				return err
			}
			path := filepath.Join(baseDir, store.AgentsSubdir, args[0], "stdout.log")
			out, err := tailLines(path, lines)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of trailing lines to print")
	return cmd
}

// tailLines returns the last n lines of the file at path. It reads the
// whole file rather than seeking from the end; agent logs are small
// enough in practice that the simple approach is fine.
func tailLines(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var all []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return strings.Join(all, "\n") + "\n", nil
}
