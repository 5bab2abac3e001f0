// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
	"github.com/jeranaias/medinsight-tui/internal/export"
	"github.com/jeranaias/medinsight-tui/internal/store"
	"github.com/jeranaias/medinsight-tui/internal/ui/components"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// Update handles all Bubble Tea messages for the chat view.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// Unhandled keys go to the text input
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)

	case TurnEventMsg:
		m.handleTurnEvent(msg)
		cmds = append(cmds, m.waitForEvent())

	case TurnFinishedMsg:
		if msg.ChatID == m.store.CurrentChatID() {
			m.state = StateReady
			m.spin.Stop()
		}
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case MessagesInvalidatedMsg:
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case SendResultMsg:
		// Transport failures already appended a notice message to the
		// chat; only transient refusals need the status bar.
		if errors.Is(msg.Err, store.ErrTurnInFlight) {
			cmds = append(cmds, m.notice("Waiting for the current answer"))
		}
		m.refresh()

	case HealthResultMsg:
		if msg.Err != nil {
			m.statusBar.SetServer(components.ServerOffline, m.client.BaseURL())
		} else {
			m.statusBar.SetServer(components.ServerOnline, m.client.BaseURL())
		}
		cmds = append(cmds, scheduleHealthTick())

	case healthTickMsg:
		cmds = append(cmds, m.checkHealth())

	case ConfigReloadedMsg:
		cmds = append(cmds, m.applyConfig(msg.Config))

	case noticeExpiredMsg:
		m.statusBar.SetNotice("")

	default:
		if cmd := m.spin.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes bound keys. Reports whether the key was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.savePrefs()
		return tea.Quit, true

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keyMap.Submit):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
		return m.submit(), true

	case key.Matches(msg, m.keyMap.Cancel):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
		if m.store.CancelTurn(m.store.CurrentChatID()) {
			return m.notice("Turn cancelled"), true
		}
		return nil, true

	case key.Matches(msg, m.keyMap.NewChat):
		m.store.CreateChat("")
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keyMap.DeleteChat):
		if id := m.store.CurrentChatID(); id != "" {
			m.store.DeleteChat(id)
			m.refresh()
		}
		return nil, true

	case key.Matches(msg, m.keyMap.ClearChat):
		if id := m.store.CurrentChatID(); id != "" {
			m.store.ClearChat(id)
			m.refresh()
		}
		return nil, true

	case key.Matches(msg, m.keyMap.NextChat):
		m.selectAdjacentChat(1)
		return nil, true

	case key.Matches(msg, m.keyMap.PrevChat):
		m.selectAdjacentChat(-1)
		return nil, true

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		m.resize(m.width, m.height)
		return nil, true

	case key.Matches(msg, m.keyMap.ToggleSteps):
		m.showSteps = !m.showSteps
		m.renderer.SetShowSteps(m.showSteps)
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keyMap.Export):
		return m.exportCurrent(), true

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return nil, true

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return nil, true
	}

	return nil, false
}

// submit sends the current input as a new turn.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.store.IsBusy(m.store.CurrentChatID()) && m.store.CurrentChatID() != "" {
		return m.notice("Waiting for the current answer")
	}

	m.input.Reset()
	m.state = StateStreaming

	cmds := []tea.Cmd{m.sendTurn(text), m.spin.Start()}

	// Show the user message immediately; the turn commits the rest.
	m.refresh()
	return tea.Batch(cmds...)
}

// handleTurnEvent folds one stream event into the view state.
func (m *Model) handleTurnEvent(msg TurnEventMsg) {
	if msg.ChatID != m.store.CurrentChatID() {
		return
	}

	switch msg.Event.Type {
	case agent.EventStep:
		if msg.Event.Thought != "" {
			m.spin.SetMessage(util.TruncateRunes(msg.Event.Thought, 60))
		}
	case agent.EventToolResult:
		if msg.Event.Tool != "" {
			m.spin.SetMessage(util.TruncateRunes(msg.Event.Tool, 60))
		}
	}
}

// selectAdjacentChat moves the active chat selection by delta.
func (m *Model) selectAdjacentChat(delta int) {
	chats := m.store.Chats()
	if len(chats) == 0 {
		return
	}

	current := m.store.CurrentChatID()
	idx := 0
	for i, chat := range chats {
		if chat.ID == current {
			idx = i
			break
		}
	}

	idx = (idx + delta + len(chats)) % len(chats)
	m.store.SetCurrentChat(chats[idx].ID)
	m.state = StateReady
	if m.store.IsBusy(chats[idx].ID) {
		m.state = StateStreaming
	}
	m.refresh()
}

// exportCurrent writes the active chat to a Markdown file.
func (m *Model) exportCurrent() tea.Cmd {
	chat := m.store.CurrentChat()
	if chat == nil || len(chat.Messages) == 0 {
		return m.notice("Nothing to export")
	}

	opts := export.DefaultOptions()
	opts.IncludeSteps = m.showSteps

	path, err := export.ExportMarkdown(chat, opts)
	if err != nil {
		return m.notice(fmt.Sprintf("Export failed: %v", err))
	}
	return m.notice("Exported to " + path)
}

// resize recomputes the component layout.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentWidth := width
	if m.sidebarVisible {
		contentWidth -= m.sidebarWidth
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	// Header, spinner line, input box, status bar
	contentHeight := height - 7
	if contentHeight < 3 {
		contentHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}

	m.sidebar.SetSize(m.sidebarWidth, contentHeight)
	m.statusBar.SetWidth(width)
	m.renderer.SetWidth(contentWidth)
	m.input.Width = contentWidth - 6

	m.refresh()
}

// applyConfig folds a reloaded configuration into the running session.
// The file is the source of truth once the user edits it, so in-session
// toggles are overwritten.
func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	if cfg == nil {
		return nil
	}
	m.cfg = cfg
	m.sidebarVisible = cfg.UI.SidebarVisible
	m.sidebarWidth = cfg.UI.SidebarWidth
	m.showSteps = cfg.UI.ShowSteps
	m.renderer.SetShowSteps(m.showSteps)
	if m.ready {
		m.resize(m.width, m.height)
	}
	return m.notice("Configuration reloaded")
}

// refresh rebuilds the viewport and sidebar from the store snapshot.
func (m *Model) refresh() {
	chats := m.store.Chats()
	busy := make(map[string]bool, len(chats))
	for _, chat := range chats {
		if m.store.IsBusy(chat.ID) {
			busy[chat.ID] = true
		}
	}
	m.sidebar.SetChats(chats, m.store.CurrentChatID(), busy)

	current := m.store.CurrentChat()
	if current != nil {
		m.statusBar.SetThreadID(current.ThreadID)
	} else {
		m.statusBar.SetThreadID("")
	}

	if m.ready {
		m.viewport.SetContent(m.renderConversation(current))
		m.viewport.GotoBottom()
	}
}
