// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medinsight-tui/internal/model"
)

// View renders the full chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "Starting medinsight..."
	}

	header := m.renderHeader()

	content := m.viewport.View()
	if m.showHelp {
		content = m.renderHelp()
	}
	var body string
	if m.sidebarVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), content)
	} else {
		body = content
	}

	spinnerLine := ""
	if m.spin.IsActive() {
		spinnerLine = m.spin.View()
	}

	inputBox := m.theme.InputContainer.
		Width(m.width - 2).
		Render(m.input.View())

	sections := []string{header, body}
	if spinnerLine != "" {
		sections = append(sections, spinnerLine)
	}
	sections = append(sections, inputBox, m.statusBar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the top bar with the app name and chat title.
func (m *Model) renderHeader() string {
	title := "medinsight"
	if chat := m.store.CurrentChat(); chat != nil {
		title += "  " + m.theme.HeaderMeta.Render(chat.Title)
	}
	return m.theme.Header.Width(m.width).Render(m.theme.HeaderTitle.Render(title))
}

// renderHelp renders the keyboard shortcut overlay in place of the
// conversation viewport.
func (m *Model) renderHelp() string {
	title := m.theme.HeaderTitle.Render("Keyboard shortcuts")
	body := m.help.View(m.keyMap)
	version := m.theme.HeaderMeta.Render("medinsight, a client for the Medical Insight analytics agent")
	panel := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", version)
	return m.theme.ChartFrame.Render(panel)
}

// renderConversation renders all messages of a chat for the viewport.
func (m *Model) renderConversation(chat *model.Chat) string {
	if chat == nil || len(chat.Messages) == 0 {
		return m.theme.HeaderMeta.Render(
			"\n  Ask a question about the medical analytics data to get started.\n")
	}

	var sb strings.Builder
	for i, msg := range chat.Messages {
		sb.WriteString(m.renderer.Render(msg))
		if i < len(chat.Messages)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
