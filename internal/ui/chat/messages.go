// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main Bubble Tea view for medinsight.
//
// This file defines all Bubble Tea message types used by the chat
// interface:
//   - Turn lifecycle: stream events, completion, send results
//   - Store: message invalidation after clear/delete
//   - Health: backend reachability polling
//   - UI: transient notices
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnEventMsg delivers one decoded stream event from an in-flight turn.
type TurnEventMsg struct {
	ChatID string
	Event  agent.Event
}

// TurnFinishedMsg signals that a turn committed or failed and the chat's
// loading state has been cleared.
type TurnFinishedMsg struct {
	ChatID string
}

// SendResultMsg reports the outcome of a SendMessage call.
type SendResultMsg struct {
	ChatID string
	Err    error
}

// =============================================================================
// STORE MESSAGES
// =============================================================================

// MessagesInvalidatedMsg signals that a chat's messages were removed
// wholesale (clear or delete).
type MessagesInvalidatedMsg struct {
	ChatID string
}

// =============================================================================
// HEALTH MESSAGES
// =============================================================================

// HealthResultMsg reports a backend health probe.
type HealthResultMsg struct {
	Status *agent.HealthStatus
	Err    error
}

// healthTickMsg schedules the next periodic health probe.
type healthTickMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a freshly validated configuration after the
// config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// noticeExpiredMsg clears a transient status bar notice.
type noticeExpiredMsg struct{}
