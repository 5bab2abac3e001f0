// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// medinsight.
//
// This package implements the non-TUI commands of the medinsight client:
// one-shot questions, a line-oriented chat REPL, server health checks,
// and configuration management. The TUI itself lives under internal/ui.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ChatCLI: Line editor with persistent input history for the chat REPL
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    os.Exit(cli.HandleAsk(args))
//	case cli.CmdChat:
//	    os.Exit(cli.HandleChat(args))
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Single streamed question, markdown-rendered answer
//   - chat: Interactive REPL with thread continuity and /commands
//   - status: Server health probe and config summary
//   - config: Show, set, and locate configuration
//
// The status command supports --json for scripted checks.
package cli
