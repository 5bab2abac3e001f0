// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/medinsight-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports chats to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a chat to Markdown format.
func (e *MarkdownExporter) Export(chat *model.Chat) ([]byte, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat is nil")
	}
	if len(chat.Messages) == 0 {
		return nil, fmt.Errorf("chat has no messages")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(chat.Title)))
		sb.WriteString(fmt.Sprintf("date: %s\n", chat.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", chat.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(chat.Messages)))
		if chat.ThreadID != "" {
			sb.WriteString(fmt.Sprintf("thread: %s\n", chat.ThreadID))
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: medinsight-tui\n")
		sb.WriteString("---\n\n")
	}

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(chat.Title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(chat.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(chat.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(chat.Messages)))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, msg := range chat.Messages {
		roleLabel := fmt.Sprintf("[%s]", msg.Role.DisplayName())
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				roleLabel,
				formatShortTimestamp(msg.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel))
		}

		if e.options.IncludeSteps && len(msg.Steps) > 0 {
			sb.WriteString(e.formatSteps(msg.Steps))
			sb.WriteString("\n")
		}

		sb.WriteString(strings.TrimSpace(msg.Text))
		sb.WriteString("\n\n")

		if msg.HasChart() {
			sb.WriteString(e.formatChart(msg))
		}

		if i < len(chat.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from medinsight on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatSteps renders the reasoning trace as a collapsed list.
func (e *MarkdownExporter) formatSteps(steps []*model.Step) string {
	var sb strings.Builder

	sb.WriteString("<details><summary>Analysis steps</summary>\n\n")
	for _, step := range steps {
		status := "[OK]"
		switch step.Status {
		case model.StepRunning, model.StepPending:
			status = "[...]"
		case model.StepError:
			status = "[FAIL]"
		}

		line := fmt.Sprintf("- %s %s", status, step.Title)
		if step.Tool != "" {
			line += fmt.Sprintf(" (`%s`)", step.Tool)
		}
		if step.Duration > 0 {
			line += fmt.Sprintf(" [%s]", formatStepDuration(step.Duration))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n</details>\n")

	return sb.String()
}

// formatChart renders a chart attachment. Structured legacy charts get a
// data table; opaque payloads get a note, since the data only renders in
// the TUI.
func (e *MarkdownExporter) formatChart(msg *model.Message) string {
	var sb strings.Builder

	if msg.Chart != nil && len(msg.Chart.Points) > 0 {
		title := msg.Chart.Title
		if title == "" {
			title = "Chart"
		}
		sb.WriteString(fmt.Sprintf("**%s**\n\n", escapeMarkdown(title)))
		sb.WriteString("| Period | Cases |\n|---|---|\n")
		for _, p := range msg.Chart.Points {
			sb.WriteString(fmt.Sprintf("| %s | %g |\n", p.Label, p.Value))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	if len(msg.Visualization) > 0 {
		sb.WriteString("*[chart attachment omitted]*\n\n")
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
