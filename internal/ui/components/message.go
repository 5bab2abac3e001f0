// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer formats chat messages into styled terminal bubbles.
type MessageRenderer struct {
	theme     *styles.Theme
	width     int
	showSteps bool
}

// NewMessageRenderer creates a message renderer.
func NewMessageRenderer(theme *styles.Theme) MessageRenderer {
	return MessageRenderer{
		theme:     theme,
		showSteps: true,
	}
}

// SetWidth sets the available rendering width.
func (r *MessageRenderer) SetWidth(width int) {
	r.width = width
}

// SetShowSteps toggles the reasoning trace under agent messages.
func (r *MessageRenderer) SetShowSteps(show bool) {
	r.showSteps = show
}

// Render formats a single message, including its reasoning trace and any
// chart attachment.
func (r *MessageRenderer) Render(msg *model.Message) string {
	var parts []string

	label := r.theme.RoleLabel.Render(msg.Role.DisplayName()) + " " +
		r.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	parts = append(parts, label)

	if r.showSteps && len(msg.Steps) > 0 {
		parts = append(parts, r.renderSteps(msg.Steps))
	}

	bubbleWidth := r.width - 4
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	bubble := r.theme.AgentBubble
	if msg.Role == model.RoleUser {
		bubble = r.theme.UserBubble
	}
	parts = append(parts, bubble.Width(bubbleWidth).Render(msg.Text))

	if msg.HasChart() {
		chart := RenderChart(r.theme, msg, bubbleWidth)
		if chart != "" {
			parts = append(parts, chart)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderSteps formats the reasoning trace as one line per step.
func (r *MessageRenderer) renderSteps(steps []*model.Step) string {
	var sb strings.Builder

	for i, step := range steps {
		var mark string
		switch step.Status {
		case model.StepSuccess:
			mark = r.theme.StepSuccess.Render(styles.StatusIndicators.Success)
		case model.StepError:
			mark = r.theme.StepError.Render(styles.StatusIndicators.Error)
		default:
			mark = r.theme.StepRunning.Render(styles.StatusIndicators.Pending)
		}

		line := "  " + mark + " " + step.Title
		if step.Tool != "" {
			line += " " + r.theme.StepTool.Render(fmt.Sprintf("(%s)", step.Tool))
		}
		if step.Duration > 0 {
			line += " " + r.theme.StepTool.Render(fmt.Sprintf("%.1fs", step.Duration.Seconds()))
		}

		sb.WriteString(line)
		if i < len(steps)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
