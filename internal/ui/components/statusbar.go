// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// ServerState describes the backend connection for the status bar.
type ServerState int

const (
	ServerUnknown ServerState = iota
	ServerOnline
	ServerOffline
)

// StatusBar renders the bottom status line: server state, active thread,
// and keyboard hints.
type StatusBar struct {
	theme *styles.Theme
	width int

	serverState ServerState
	serverURL   string
	threadID    string
	notice      string
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme}
}

// SetWidth sets the rendering width.
func (b *StatusBar) SetWidth(width int) {
	b.width = width
}

// SetServer updates the backend connection display.
func (b *StatusBar) SetServer(state ServerState, url string) {
	b.serverState = state
	b.serverURL = url
}

// SetThreadID updates the active thread display.
func (b *StatusBar) SetThreadID(threadID string) {
	b.threadID = threadID
}

// SetNotice shows a transient message in place of the shortcut hints.
func (b *StatusBar) SetNotice(notice string) {
	b.notice = notice
}

// View renders the status bar.
func (b *StatusBar) View() string {
	var left strings.Builder

	switch b.serverState {
	case ServerOnline:
		left.WriteString(b.theme.StatusOnline.Render(styles.StatusIndicators.Active + " online"))
	case ServerOffline:
		left.WriteString(b.theme.StatusError.Render(styles.StatusIndicators.Error + " offline"))
	default:
		left.WriteString(b.theme.ShortcutDesc.Render(styles.StatusIndicators.Pending + " connecting"))
	}

	if b.threadID != "" {
		left.WriteString("  thread:" + util.TruncateRunes(b.threadID, 12))
	}

	right := b.notice
	if right == "" {
		hints := []struct{ key, desc string }{
			{"Enter", "send"},
			{"C-n", "new"},
			{"C-s", "sidebar"},
			{"Esc", "cancel"},
			{"C-q", "quit"},
		}
		parts := make([]string, 0, len(hints))
		for _, h := range hints {
			parts = append(parts,
				b.theme.ShortcutKey.Render(h.key)+" "+b.theme.ShortcutDesc.Render(h.desc))
		}
		right = strings.Join(parts, "  ")
	}

	leftStr := left.String()
	gap := b.width - lipgloss.Width(leftStr) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return b.theme.StatusBar.Width(b.width).Render(leftStr + strings.Repeat(" ", gap) + right)
}
