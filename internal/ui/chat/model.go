// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
	"github.com/jeranaias/medinsight-tui/internal/prefs"
	"github.com/jeranaias/medinsight-tui/internal/store"
	"github.com/jeranaias/medinsight-tui/internal/ui/components"
	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // A turn is in flight on the active chat
)

// healthInterval is how often the backend is probed while the TUI runs.
const healthInterval = 30 * time.Second

// eventBufferSize bounds the store-to-TUI event channel. Stream events
// beyond a full buffer are dropped; the committed message carries the
// complete state regardless.
const eventBufferSize = 256

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Domain
	store  *store.Store
	client *agent.Client
	cfg    *config.Config
	pref   *prefs.Store // nil when preferences are unavailable

	// Store-to-TUI event bridge. Store hooks run on streaming goroutines;
	// they publish here and waitForEvent feeds Bubble Tea.
	events chan tea.Msg

	// UI Components
	viewport  viewport.Model
	input     textinput.Model
	spin      components.Spinner
	sidebar   components.Sidebar
	statusBar components.StatusBar
	renderer  components.MessageRenderer

	// Key bindings
	keyMap KeyMap
	help   help.Model

	// View options
	sidebarVisible bool
	sidebarWidth   int
	showSteps      bool
	showHelp       bool

	ready bool
}

// New creates the chat model and installs store hooks.
func New(st *store.Store, client *agent.Client, cfg *config.Config, pref *prefs.Store) *Model {
	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Ask about the medical data..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	m := &Model{
		theme:          theme,
		store:          st,
		client:         client,
		cfg:            cfg,
		pref:           pref,
		events:         make(chan tea.Msg, eventBufferSize),
		input:          input,
		spin:           components.NewSpinner(theme),
		sidebar:        components.NewSidebar(theme),
		statusBar:      components.NewStatusBar(theme),
		renderer:       components.NewMessageRenderer(theme),
		keyMap:         DefaultKeyMap(),
		help:           newHelpModel(),
		sidebarVisible: cfg.UI.SidebarVisible,
		sidebarWidth:   cfg.UI.SidebarWidth,
		showSteps:      cfg.UI.ShowSteps,
	}

	if pref != nil {
		m.sidebarVisible = pref.GetBool(prefs.KeySidebarVisible, m.sidebarVisible)
		m.sidebarWidth = pref.GetInt(prefs.KeySidebarWidth, m.sidebarWidth)
		m.showSteps = pref.GetBool(prefs.KeyShowSteps, m.showSteps)
	}
	m.renderer.SetShowSteps(m.showSteps)

	st.SetHooks(store.Hooks{
		OnTurnEvent: func(chatID string, ev agent.Event) {
			m.publish(TurnEventMsg{ChatID: chatID, Event: ev})
		},
		OnTurnFinished: func(chatID string) {
			m.publish(TurnFinishedMsg{ChatID: chatID})
		},
		OnMessagesInvalidated: func(chatID string) {
			m.publish(MessagesInvalidatedMsg{ChatID: chatID})
		},
	})

	return m
}

// newHelpModel builds the expanded help view shown by the F1 overlay.
func newHelpModel() help.Model {
	h := help.New()
	h.ShowAll = true
	return h
}

// publish sends a message onto the event bridge without blocking the
// streaming goroutine.
func (m *Model) publish(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Init starts the event bridge and the first health probe.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForEvent(),
		m.checkHealth(),
	)
}

// waitForEvent blocks on the event bridge and delivers the next store
// event to the update loop.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// checkHealth probes the backend once.
func (m *Model) checkHealth() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := client.Health(ctx)
		return HealthResultMsg{Status: status, Err: err}
	}
}

// scheduleHealthTick queues the next periodic probe.
func scheduleHealthTick() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

// sendTurn runs a full turn against the active chat off the UI goroutine.
func (m *Model) sendTurn(text string) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		chatID := st.CurrentChatID()
		err := st.SendMessage(context.Background(), text)
		if chatID == "" {
			chatID = st.CurrentChatID()
		}
		return SendResultMsg{ChatID: chatID, Err: err}
	}
}

// notice shows a transient message in the status bar.
func (m *Model) notice(text string) tea.Cmd {
	m.statusBar.SetNotice(text)
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{}
	})
}

// savePrefs persists the current view options. Failures are ignored;
// preferences are best effort.
func (m *Model) savePrefs() {
	if m.pref == nil {
		return
	}
	_ = m.pref.SetBool(prefs.KeySidebarVisible, m.sidebarVisible)
	_ = m.pref.SetInt(prefs.KeySidebarWidth, m.sidebarWidth)
	_ = m.pref.SetBool(prefs.KeyShowSteps, m.showSteps)
	if id := m.store.CurrentChatID(); id != "" {
		_ = m.pref.Set(prefs.KeyLastChatID, id)
	}
}
