// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/model"
)

// =============================================================================
// TURN ORCHESTRATION
// =============================================================================

// SendMessage drives one request/response turn end-to-end:
//
//  1. Resolve the active chat, creating one if none is selected.
//  2. Append the user message.
//  3. Mark the chat's turn in flight (the global loading flag follows).
//  4. Open the streaming request, carrying the chat's thread identifier
//     (or none for a fresh thread), and fold the event stream.
//  5. Attach the server-assigned thread identifier, if one arrived.
//  6. Commit exactly one agent message: the final answer, else the last
//     partial thought, else a fixed placeholder, with the captured
//     visualization payload and reasoning trace attached.
//
// The in-flight state is cleared on every exit path. Any transport
// failure degrades to a single agent message carrying a connection
// failure notice; it is returned as well so CLI callers can report it.
//
// If the chat is deleted or cleared while the turn is in flight, the
// turn's context is cancelled and the commit targets a chat that no
// longer wants it, which is a silent no-op.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	chatID := s.CurrentChatID()
	if chatID == "" || s.ChatByID(chatID) == nil {
		chatID = s.CreateChat("")
	}

	// Refuse before appending so a rejected send leaves no dangling
	// user message in the busy chat.
	if s.IsBusy(chatID) {
		return ErrTurnInFlight
	}

	if _, ok := s.AddMessage(chatID, model.RoleUser, text); !ok {
		// The chat raced away between resolution and append
		chatID = s.CreateChat("")
		s.AddMessage(chatID, model.RoleUser, text)
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := s.beginTurn(chatID, cancel); err != nil {
		cancel()
		return err
	}
	defer s.endTurn(chatID)

	threadID := ""
	if chat := s.ChatByID(chatID); chat != nil {
		threadID = chat.ThreadID
	}

	var onEvent func(agent.Event)
	if hook := s.turnEventHook(); hook != nil {
		onEvent = func(ev agent.Event) {
			hook(chatID, ev)
		}
	}

	acc, err := s.client.StreamQuery(ctx, text, threadID, onEvent)
	if err != nil {
		if ctx.Err() != nil {
			// The turn was cancelled (chat deleted or cleared); the user
			// asked for this, so no failure notice is committed.
			return ctx.Err()
		}
		notice := model.NewAgentMessage(fmt.Sprintf("Connection error: %v", err))
		s.AppendMessage(chatID, notice)
		return err
	}

	if acc.ThreadID != "" {
		s.SetThreadID(chatID, acc.ThreadID)
	}

	reply := model.NewAgentMessage(acc.Text())
	reply.Visualization = acc.Visualization
	reply.Steps = acc.Steps
	s.AppendMessage(chatID, reply)
	return nil
}

// turnEventHook snapshots the OnTurnEvent hook under the lock.
func (s *Store) turnEventHook() func(string, agent.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks.OnTurnEvent
}
