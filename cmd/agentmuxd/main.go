// Command agentmuxd runs the MCP stdio server: it loads config.json,
// resolves the on-disk state directory, wires the agent manager and RPC
// server, and serves tools/call requests until stdin closes or it
// receives SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentmux/agentmux/internal/manager"
	"github.com/agentmux/agentmux/internal/rpc"
	"github.com/agentmux/agentmux/internal/store"
	"github.com/agentmux/agentmux/internal/versioncheck"

	_ "github.com/agentmux/agentmux/internal/agentcli/providers/claude"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/codex"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/cursor"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/gemini"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/opencode"
	_ "github.com/agentmux/agentmux/internal/agentcli/providers/trae"
)

const (
	serverName    = "agentmux"
	serverVersion = "0.1.0"
	npmPackage    = "agentmux"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentmuxd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	baseDir, err := store.ResolveBaseDir()
	if err != nil {
		return fmt.Errorf("resolve base dir: %w", err)
	}
	if store.FallbackUsed(baseDir) {
		logger.Warn("using temp fallback base dir; state will not survive a reboot", "base_dir", baseDir)
	}

	cleanExit := store.ConsumeCleanShutdownMarker(baseDir)
	priorCrash := !cleanExit
	if cleanExit {
		logger.Debug("previous run exited cleanly", "base_dir", baseDir)
	} else {
		logger.Warn("no clean-shutdown marker found; previous run may have crashed, re-validating reattached agents strictly", "base_dir", baseDir)
	}

	cfg, err := store.LoadConfig(baseDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mgr := manager.New(baseDir, cfg, manager.WithPriorCrash(priorCrash))
	mgr.Initialize()

	checker := versioncheck.New(baseDir, npmPackage, "")
	server := rpc.New(serverName, serverVersion, mgr, cfg, checker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the version cache off the request path; the first tools/list
	// then reads a fresh cache instead of blocking on the registry.
	go func() { _ = checker.Latest(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		_ = store.MarkCleanShutdown(baseDir)
		cancel()
		os.Exit(0)
	}()

	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	_ = store.MarkCleanShutdown(baseDir)
	return nil
}
