// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultChatTitle is used when a chat is created without an explicit title.
const DefaultChatTitle = "New Chat"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds one conversation with the agent: an ordered message history
// plus the server-side thread identifier correlating the chat to an ongoing
// conversation context.
//
// ThreadID is absent until the server assigns one and stable afterwards,
// until the chat is cleared. Clearing discards it so the next turn starts a
// fresh server-side thread.
type Chat struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages in append order (display order)
	Messages []*Message `json:"messages"`

	// Server-side conversation context
	ThreadID string `json:"thread_id,omitempty"`
}

// NewChat creates a new chat with a generated ID.
func NewChat(title string) *Chat {
	if title == "" {
		title = DefaultChatTitle
	}
	now := time.Now()
	return &Chat{
		ID:        generateChatID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// AddMessage appends a message and bumps the last-modified timestamp.
func (c *Chat) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// MessageByID returns the message with the given ID, or nil.
func (c *Chat) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Clear empties the message history and drops the thread identifier.
// Chat identity (ID, title) is preserved.
func (c *Chat) Clear() {
	c.Messages = make([]*Message, 0)
	c.ThreadID = ""
	c.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the chat. Messages are copied so callers
// can render a snapshot while a turn mutates the original.
func (c *Chat) Clone() *Chat {
	clone := &Chat{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ThreadID:  c.ThreadID,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		if len(msg.Steps) > 0 {
			msgCopy.Steps = make([]*Step, len(msg.Steps))
			for j, step := range msg.Steps {
				stepCopy := *step
				msgCopy.Steps[j] = &stepCopy
			}
		}
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// generateChatID creates a unique chat identifier.
func generateChatID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Extremely unlikely; fall back to a time-derived token
		return fmt.Sprintf("chat_%d", time.Now().UnixNano())
	}
	return "chat_" + hex.EncodeToString(b)
}
