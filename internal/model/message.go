// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages and
// agent reasoning steps.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAgent:
		return "Agent"
	default:
		return string(r)
	}
}

// =============================================================================
// CHART TYPES
// =============================================================================

// ChartMode selects how legacy chart points are rendered.
type ChartMode string

const (
	ChartModeLine ChartMode = "line"
	ChartModeBar  ChartMode = "bar"
)

// ChartPoint is a single (label, value) pair in a legacy chart.
type ChartPoint struct {
	Label string  `json:"month"`
	Value float64 `json:"cases"`
}

// Chart is the documented fallback chart format: a titled, ordered list of
// points rendered as a line or bar chart.
type Chart struct {
	Title  string       `json:"title"`
	Mode   ChartMode    `json:"mode"`
	Points []ChartPoint `json:"points"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a chat.
//
// A message carries either plain text, or text plus a chart attachment.
// The attachment is one of two shapes: Visualization holds an opaque
// payload produced by the server and forwarded verbatim to the chart
// renderer; Chart holds the legacy structured fallback.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text string `json:"text"`

	// Chart attachments
	Visualization json.RawMessage `json:"visualization,omitempty"`
	Chart         *Chart          `json:"chart,omitempty"`

	// Reasoning trace surfaced during the turn
	Steps []*Step `json:"steps,omitempty"`
}

// NewMessage creates a new message with a generated ID.
// Message IDs are unique within and across chats for the process lifetime.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message {
	return NewMessage(RoleUser, text)
}

// NewAgentMessage creates a new agent message.
func NewAgentMessage(text string) *Message {
	return NewMessage(RoleAgent, text)
}

// HasChart reports whether the message carries any renderable chart data.
func (m *Message) HasChart() bool {
	if len(m.Visualization) > 0 {
		return true
	}
	return m.Chart != nil && len(m.Chart.Points) > 0
}

// AddStep appends a step to the message's reasoning trace.
func (m *Message) AddStep(step *Step) {
	m.Steps = append(m.Steps, step)
}

// LastStep returns the most recent step, or nil if there are none.
func (m *Message) LastStep() *Step {
	if len(m.Steps) == 0 {
		return nil
	}
	return m.Steps[len(m.Steps)-1]
}
