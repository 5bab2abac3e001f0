// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the medinsight CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "medinsight chat" command: a line-oriented REPL against the
// analytics agent with input history, thread continuity, and slash
// commands. The TUI is the richer surface; this mode exists for plain
// terminals and scripted-ish sessions.
//
// Command: chat
// Short:   Interactive chat session
// Aliases: c
//
// Slash commands:
//   /help      Show available commands
//   /history   Show the server-side history for the current thread
//   /clear     Clear the current thread on the server
//   /new       Start a fresh thread
//   /quit      Exit the session
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// historyTimeout bounds the non-streaming requests issued from the REPL.
const historyTimeout = 10 * time.Second

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive chat REPL. Returns the process exit code.
func HandleChat(args Args) int {
	if !IsTTY() {
		PrintError("chat requires an interactive terminal; use 'medinsight ask' for piped input")
		return 1
	}

	client, err := newClientFromArgs(args)
	if err != nil {
		PrintError(err.Error())
		return 1
	}

	cli := NewChatCLI()
	defer cli.Close()

	threadID := args.ThreadID

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("medinsight chat"))
		fmt.Println(DimStyle.Render("Connected to " + client.BaseURL()))
		fmt.Println(DimStyle.Render("Type /help for commands, /quit to exit."))
		fmt.Println()
	}

	for {
		input, err := cli.ReadInput("you> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(DimStyle.Render("(interrupted, /quit to exit)"))
				continue
			}
			// io.EOF on Ctrl-D ends the session
			fmt.Println()
			return 0
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done := runSlashCommand(client, &threadID, input)
			if done {
				return 0
			}
			continue
		}

		threadID = runChatTurn(client, threadID, input, args.Quiet)
	}
}

// runChatTurn streams one turn and returns the thread ID for the next one.
func runChatTurn(client *agent.Client, threadID, query string, quiet bool) string {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	onEvent := func(ev agent.Event) {
		if quiet {
			return
		}
		switch ev.Type {
		case agent.EventStep:
			if ev.Thought != "" {
				fmt.Println(ThoughtStyle.Render("  [*] " + util.TruncateRunes(ev.Thought, 100)))
			}
		case agent.EventToolResult:
			if ev.Tool != "" {
				fmt.Println(ThoughtStyle.Render("  [>] " + ev.Tool))
			}
		}
	}

	acc, err := client.StreamQuery(ctx, query, threadID, onEvent)
	if err != nil {
		var streamErr *agent.StreamError
		if errors.As(err, &streamErr) && acc != nil {
			PrintWarning("stream interrupted, partial answer follows")
			displayAnswer(streamErr.Partial)
			if acc.ThreadID != "" {
				return acc.ThreadID
			}
			return threadID
		}
		PrintError(err.Error())
		return threadID
	}

	fmt.Println()
	displayAnswer(acc.Text())

	if acc.ThreadID != "" {
		return acc.ThreadID
	}
	return threadID
}

// runSlashCommand executes a REPL slash command. Reports whether the
// session should end.
func runSlashCommand(client *agent.Client, threadID *string, input string) bool {
	cmd := strings.ToLower(strings.Fields(input)[0])

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Println(DimStyle.Render("  /history   show server-side history for this thread"))
		fmt.Println(DimStyle.Render("  /clear     clear this thread on the server"))
		fmt.Println(DimStyle.Render("  /new       start a fresh thread"))
		fmt.Println(DimStyle.Render("  /quit      exit"))

	case "/new":
		*threadID = ""
		fmt.Println(DimStyle.Render("Started a fresh thread."))

	case "/history":
		showThreadHistory(client, *threadID)

	case "/clear":
		clearThread(client, threadID)

	default:
		PrintWarning("unknown command " + cmd + " (try /help)")
	}
	return false
}

// showThreadHistory fetches and prints the server-side conversation history.
func showThreadHistory(client *agent.Client, threadID string) {
	if threadID == "" {
		fmt.Println(DimStyle.Render("No thread yet. Ask something first."))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	resp, err := client.History(ctx, threadID)
	if err != nil {
		PrintError("history: " + err.Error())
		return
	}
	if len(resp.Messages) == 0 {
		fmt.Println(DimStyle.Render("History is empty."))
		return
	}

	for _, msg := range resp.Messages {
		label := "agent"
		if strings.EqualFold(msg.Role, "user") || strings.EqualFold(msg.Role, "human") {
			label = "you"
		}
		fmt.Printf("%s %s\n", LabelStyle.Render(label+":"), ValueStyle.Render(msg.Content))
	}
}

// clearThread deletes the thread server-side and resets local continuity.
func clearThread(client *agent.Client, threadID *string) {
	if *threadID == "" {
		fmt.Println(DimStyle.Render("No thread to clear."))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	if err := client.DeleteHistory(ctx, *threadID); err != nil {
		PrintError("clear: " + err.Error())
		return
	}
	*threadID = ""
	PrintSuccess("Thread cleared.")
}
