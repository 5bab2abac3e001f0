// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar          lipgloss.Style
	SidebarTitle     lipgloss.Style
	SidebarItem      lipgloss.Style
	SidebarSelected  lipgloss.Style
	SidebarBusyMark  lipgloss.Style
	SidebarEmptyHint lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble  lipgloss.Style
	AgentBubble lipgloss.Style
	RoleLabel   lipgloss.Style
	Timestamp   lipgloss.Style
	ErrorText   lipgloss.Style

	// ==========================================================================
	// REASONING TRACE STYLES
	// ==========================================================================

	StepRunning lipgloss.Style
	StepSuccess lipgloss.Style
	StepError   lipgloss.Style
	StepTool    lipgloss.Style

	// ==========================================================================
	// CHART STYLES
	// ==========================================================================

	ChartFrame lipgloss.Style
	ChartTitle lipgloss.Style
	ChartBarEl lipgloss.Style
	ChartLabel lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusOnline lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingTime lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	hasTrueColor := colorProfile == termenv.TrueColor
	isDark := termenv.HasDarkBackground()

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: hasTrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		Padding(0, 0, 1, 0)
	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SidebarSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.SidebarBusyMark = lipgloss.NewStyle().
		Foreground(Amber)
	t.SidebarEmptyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.AgentBubble = lipgloss.NewStyle().
		Foreground(AgentBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AgentBubbleBorder).
		Padding(0, 1)
	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	// Reasoning trace
	t.StepRunning = lipgloss.NewStyle().Foreground(Amber)
	t.StepSuccess = lipgloss.NewStyle().Foreground(Emerald)
	t.StepError = lipgloss.NewStyle().Foreground(Rose)
	t.StepTool = lipgloss.NewStyle().Foreground(TextMuted)

	// Charts
	t.ChartFrame = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.ChartTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.ChartBarEl = lipgloss.NewStyle().Foreground(ChartBar)
	t.ChartLabel = lipgloss.NewStyle().Foreground(ChartAxis)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusOnline = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)
	t.StatusError = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)
	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Spinner
	t.Spinner = lipgloss.NewStyle().Foreground(Teal)
	t.ThinkingText = lipgloss.NewStyle().
		Foreground(Violet).
		Italic(true)
	t.ThinkingTime = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the stored layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
