// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the medinsight CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "medinsight ask" command which sends one question to the
// analytics agent and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
// Aliases: a, query
//
// Examples:
//   medinsight ask "flu cases by region in 2025"
//   medinsight ask --thread 7f3a "break that down by age group"
//   medinsight ask --json "monthly admissions"
//
// Flags:
//   -t, --thread ID     Continue an existing conversation thread
//   --json              Print the raw answer without markdown rendering
//   -v, --verbose       Show reasoning steps while streaming
//   -q, --quiet         Minimal output
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown answers with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayAnswer prints an answer with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayAnswer(answer string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(answer))
		return
	}
	fmt.Println(answer)
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk executes the ask command: one streamed turn, then exit.
// Returns the process exit code.
func HandleAsk(args Args) int {
	query := strings.TrimSpace(args.Query)

	// A piped stdin supplies the query when none was given on the command
	// line, so "echo question | medinsight ask" works.
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil {
			query = strings.TrimSpace(string(data))
		}
	}
	if query == "" {
		PrintError("no question given")
		fmt.Fprintln(os.Stderr, DimStyle.Render("usage: medinsight ask \"question\""))
		return 1
	}

	client, err := newClientFromArgs(args)
	if err != nil {
		PrintError(err.Error())
		return 1
	}

	// Ctrl-C cancels the in-flight stream instead of killing the process
	// mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var insights []string
	onEvent := func(ev agent.Event) {
		switch ev.Type {
		case agent.EventStep:
			if args.Verbose && ev.Thought != "" {
				fmt.Fprintln(os.Stderr, ThoughtStyle.Render("  [*] "+util.TruncateRunes(ev.Thought, 100)))
			}
		case agent.EventToolResult:
			if args.Verbose && ev.Tool != "" {
				fmt.Fprintln(os.Stderr, ThoughtStyle.Render("  [>] "+ev.Tool))
			}
		case agent.EventFinal:
			insights = ev.Insights
		}
	}

	acc, err := client.StreamQuery(ctx, query, args.ThreadID, onEvent)
	if err != nil {
		var streamErr *agent.StreamError
		if errors.As(err, &streamErr) && acc != nil {
			// The stream died partway; show what arrived before failing.
			PrintWarning("stream interrupted, partial answer follows")
			displayAnswer(streamErr.Partial)
			return 1
		}
		PrintError(err.Error())
		return 1
	}

	if args.JSON {
		fmt.Println(acc.Text())
	} else {
		displayAnswer(acc.Text())
		printInsights(insights)
	}

	if args.Verbose && acc.ThreadID != "" {
		fmt.Fprintln(os.Stderr, DimStyle.Render(
			fmt.Sprintf("thread: %s  (continue with --thread %s)", acc.ThreadID, acc.ThreadID)))
	}
	return 0
}

// printInsights renders the key-insight bullets that accompany an answer.
func printInsights(insights []string) {
	if len(insights) == 0 {
		return
	}
	fmt.Println(InsightStyle.Render("Key insights:"))
	for _, ins := range insights {
		fmt.Println(InsightStyle.Render("  - " + ins))
	}
}

// newClientFromArgs builds an API client from config plus CLI overrides.
func newClientFromArgs(args Args) (*agent.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	url := cfg.Server.URL
	if args.Server != "" {
		url = args.Server
	}

	return agent.NewClient(url, agent.WithMaxRetries(cfg.Server.MaxRetries))
}
