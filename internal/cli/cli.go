// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for medinsight.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Server  string

	// Command-specific
	Query      string
	ThreadID   string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `medinsight - terminal client for the Medical Insight analytics agent

Medinsight talks to a Medical Insight API server and streams the agent's
reasoning steps and answers into your terminal.

Usage:
  medinsight                      Start the TUI (default)
  medinsight ask "question"       Ask a single question and exit
  medinsight chat                 Interactive chat session
  medinsight status, s            Check server health and configuration
  medinsight config [show|set|path]  Configuration management
  medinsight version              Show version information
  medinsight help                 Show this help

Ask Command:
  medinsight ask "flu cases by region in 2025"
    --thread ID                   Continue an existing conversation thread
    --json                        Print the raw final answer without rendering
    -v, --verbose                 Show reasoning steps while streaming

Chat Commands (inside the session):
  /history                        Show the server-side conversation history
  /clear                          Clear the current thread on the server
  /new                            Start a fresh thread
  /quit                           Exit the session

Config Commands:
  medinsight config show          Show current configuration
  medinsight config set KEY VALUE Set a configuration value
  medinsight config path          Print the configuration file path

  Keys: server.url, server.timeout_secs, ui.theme, ui.language,
        ui.sidebar_width, ui.show_steps, log.enabled

Global Flags:
  --server URL                    Override the configured server URL
  -q, --quiet                     Suppress informational output
  -v, --verbose                   Verbose output
  --json                          Machine-readable output where supported

Environment:
  MEDINSIGHT_SERVER_URL           Override server URL
  MEDINSIGHT_CONFIG               Override config file path
  NO_COLOR                        Disable colored output

Examples:
  medinsight
  medinsight ask "top 5 diagnoses last quarter"
  medinsight ask --thread 7f3a "break that down by age group"
  medinsight status
  medinsight config set ui.theme dark
`

// Parse parses command-line arguments and returns the command to execute.
func Parse(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := remaining[0]
	remaining = remaining[1:]

	switch cmd {
	case "ask", "a", "query":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "status", "s", "health":
		return CmdStatus, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command defaults to the TUI; restore the token in case a
		// future handler wants to inspect it.
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.Server = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--server=") {
				parsedArgs.Server = strings.TrimPrefix(arg, "--server=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-t", "--thread":
			if i+1 < len(remaining) {
				i++
				args.ThreadID = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--thread=") {
				args.ThreadID = strings.TrimPrefix(arg, "--thread=")
			} else {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-t", "--thread":
			if i+1 < len(remaining) {
				i++
				args.ThreadID = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--thread=") {
				args.ThreadID = strings.TrimPrefix(arg, "--thread=")
			}
		}
		i++
	}
}

// parseConfigArgs parses config command arguments (show/set/path).
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// HandleVersion prints version information.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf(`{"version":%q,"commit":%q,"built":%q,"go":%q,"platform":%q}`+"\n",
			Version, GitCommit, BuildDate, runtime.Version(),
			runtime.GOOS+"/"+runtime.GOARCH)
		return
	}
	fmt.Printf("medinsight %s\n", Version)
	fmt.Printf("  commit:   %s\n", GitCommit)
	fmt.Printf("  built:    %s\n", BuildDate)
	fmt.Printf("  go:       %s\n", runtime.Version())
	fmt.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// HandleHelp prints usage information.
func HandleHelp() {
	fmt.Print(usageText)
}
