// medinsight TUI - A terminal client for the Medical Insight analytics agent.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/cli"
	"github.com/jeranaias/medinsight-tui/internal/config"
	"github.com/jeranaias/medinsight-tui/internal/prefs"
	"github.com/jeranaias/medinsight-tui/internal/store"
	"github.com/jeranaias/medinsight-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))
	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(args))
	case cli.CmdChat:
		os.Exit(cli.HandleChat(args))
	case cli.CmdStatus:
		os.Exit(cli.HandleStatus(args))
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

// runTUI wires the store, API client, and preferences into the Bubble Tea
// program. Returns the process exit code.
func runTUI(args cli.Args) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "medinsight: %v\n", err)
		return 1
	}
	if args.Server != "" {
		cfg.Server.URL = args.Server
	}

	client, err := agent.NewClient(cfg.Server.URL, agent.WithMaxRetries(cfg.Server.MaxRetries))
	if err != nil {
		fmt.Fprintf(os.Stderr, "medinsight: %v\n", err)
		return 1
	}

	// Debug logging goes to a file; stdout belongs to the TUI.
	if cfg.Log.Enabled {
		if path, err := cfg.LogPath(); err == nil {
			if f, err := tea.LogToFile(path, "medinsight"); err == nil {
				defer f.Close()
			}
		}
	}

	// Preferences are best-effort; a broken prefs database never blocks
	// the session.
	var pref *prefs.Store
	if path, err := prefs.DefaultPath(); err == nil {
		if p, err := prefs.Open(path); err == nil {
			pref = p
			defer pref.Close()
		}
	}

	model := chat.New(store.New(client), client, cfg, pref)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Config changes on disk flow into the running session so a theme or
	// layout edit does not require a restart. Delivery goes through the
	// program's message loop, never into the model directly.
	if path, err := config.ConfigPath(); err == nil {
		watcher, werr := config.NewWatcher(path, func(updated *config.Config) {
			program.Send(chat.ConfigReloadedMsg{Config: updated})
		})
		if werr == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "medinsight: %v\n", err)
		return 1
	}
	return 0
}
