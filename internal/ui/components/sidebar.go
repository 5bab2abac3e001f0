// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// =============================================================================
// CHAT SIDEBAR
// =============================================================================

// Sidebar renders the chat list, most-recent-first, with the active chat
// highlighted and in-flight chats marked.
type Sidebar struct {
	theme  *styles.Theme
	width  int
	height int

	chats     []*model.Chat
	currentID string
	busy      map[string]bool
}

// NewSidebar creates a sidebar with the given theme.
func NewSidebar(theme *styles.Theme) Sidebar {
	return Sidebar{
		theme: theme,
		busy:  make(map[string]bool),
	}
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetChats replaces the rendered chat list.
func (s *Sidebar) SetChats(chats []*model.Chat, currentID string, busy map[string]bool) {
	s.chats = chats
	s.currentID = currentID
	if busy == nil {
		busy = make(map[string]bool)
	}
	s.busy = busy
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	if s.width <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(s.theme.SidebarTitle.Render("Chats"))
	sb.WriteString("\n")

	if len(s.chats) == 0 {
		sb.WriteString(s.theme.SidebarEmptyHint.Render("No chats yet"))
	}

	// Border and padding consume four columns
	innerWidth := s.width - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	visible := s.chats
	maxRows := s.height - 3
	if maxRows > 0 && len(visible) > maxRows {
		visible = visible[:maxRows]
	}

	for _, chat := range visible {
		marker := "  "
		if chat.ID == s.currentID {
			marker = "> "
		}

		title := util.TruncateWidth(chat.Title, innerWidth-4)
		line := marker + title
		if s.busy[chat.ID] {
			line += " " + s.theme.SidebarBusyMark.Render("*")
		}

		if chat.ID == s.currentID {
			sb.WriteString(s.theme.SidebarSelected.Render(line))
		} else {
			sb.WriteString(s.theme.SidebarItem.Render(line))
		}
		sb.WriteString("\n")
	}

	body := sb.String()
	return s.theme.Sidebar.
		Width(s.width - 2).
		Height(s.height).
		Render(strings.TrimRight(body, "\n"))
}
