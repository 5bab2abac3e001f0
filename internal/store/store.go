// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// chatTitleRunes caps titles derived from the first user message.
const chatTitleRunes = 40

// Error variables for store operations.
var (
	// ErrEmptyMessage indicates a send with no text.
	ErrEmptyMessage = errors.New("message text must not be empty")

	// ErrTurnInFlight indicates the chat already has an outstanding turn.
	ErrTurnInFlight = errors.New("a turn is already in flight for this chat")
)

// Streamer is the slice of the agent client the store depends on.
type Streamer interface {
	StreamQuery(ctx context.Context, query, threadID string, onEvent func(agent.Event)) (*agent.Accumulator, error)
}

// Hooks let the presentation layer observe store transitions.
// All hooks are optional and are called outside the store lock.
type Hooks struct {
	// OnMessagesInvalidated fires when a chat's messages are removed
	// wholesale (clear, delete), so UI state referencing message IDs in
	// that chat can be reset.
	OnMessagesInvalidated func(chatID string)

	// OnTurnEvent fires for every decoded stream event of an in-flight
	// turn, in arrival order.
	OnTurnEvent func(chatID string, ev agent.Event)

	// OnTurnFinished fires after a turn commits or fails, once the
	// loading state has been cleared.
	OnTurnFinished func(chatID string)
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store owns the list of chats, the active chat selection, and the
// in-flight turn state.
//
// Chats are held in volatile memory only and ordered most-recent-first.
// All operations addressed at a chat or message ID that no longer exists
// are total: they report not-found instead of raising. The store is safe
// for concurrent use; stream reads happen off the caller's goroutine while
// mutations are serialized by the lock.
type Store struct {
	mu        sync.RWMutex
	chats     []*model.Chat
	currentID string

	// In-flight turn tracking, scoped per chat. The global loading flag
	// is derived from this map, so one chat's turn no longer blocks
	// sending on other chats.
	inflight map[string]context.CancelFunc

	client Streamer
	hooks  Hooks
}

// New creates an empty store backed by the given streamer.
func New(client Streamer) *Store {
	return &Store{
		chats:    make([]*model.Chat, 0),
		inflight: make(map[string]context.CancelFunc),
		client:   client,
	}
}

// SetHooks installs presentation-layer hooks.
func (s *Store) SetHooks(hooks Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = hooks
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// CreateChat allocates a new chat, inserts it at the front of the list,
// makes it the active chat, and returns its ID.
func (s *Store) CreateChat(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := model.NewChat(title)
	s.chats = append([]*model.Chat{chat}, s.chats...)
	s.currentID = chat.ID
	return chat.ID
}

// DeleteChat removes a chat. If it was the active chat, the new first
// chat becomes active, or none if the list is empty. An in-flight turn
// for the chat is cancelled. Reports whether the chat existed.
func (s *Store) DeleteChat(chatID string) bool {
	s.mu.Lock()

	idx := s.indexLocked(chatID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	if s.currentID == chatID {
		if len(s.chats) > 0 {
			s.currentID = s.chats[0].ID
		} else {
			s.currentID = ""
		}
	}
	cancel := s.inflight[chatID]
	invalidated := s.hooks.OnMessagesInvalidated
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if invalidated != nil {
		invalidated(chatID)
	}
	return true
}

// ClearChat empties a chat's messages and drops its thread identifier,
// preserving chat identity. An in-flight turn for the chat is cancelled.
// Reports whether the chat existed.
func (s *Store) ClearChat(chatID string) bool {
	s.mu.Lock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		s.mu.Unlock()
		return false
	}
	chat.Clear()
	cancel := s.inflight[chatID]
	invalidated := s.hooks.OnMessagesInvalidated
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if invalidated != nil {
		invalidated(chatID)
	}
	return true
}

// SetCurrentChat selects the active chat. Passing an empty ID deselects.
// Reports whether the selection was applied.
func (s *Store) SetCurrentChat(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chatID == "" {
		s.currentID = ""
		return true
	}
	if s.chatLocked(chatID) == nil {
		return false
	}
	s.currentID = chatID
	return true
}

// CurrentChatID returns the active chat's ID, or empty if none.
func (s *Store) CurrentChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// CurrentChat returns a snapshot of the active chat, or nil if none.
func (s *Store) CurrentChat() *model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat := s.chatLocked(s.currentID)
	if chat == nil {
		return nil
	}
	return chat.Clone()
}

// ChatByID returns a snapshot of the chat with the given ID, or nil.
func (s *Store) ChatByID(chatID string) *model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		return nil
	}
	return chat.Clone()
}

// Chats returns a snapshot of all chats, most-recent-first.
func (s *Store) Chats() []*model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Chat, len(s.chats))
	for i, chat := range s.chats {
		out[i] = chat.Clone()
	}
	return out
}

// SetThreadID attaches a server-assigned thread identifier to a chat.
// Reports whether the chat existed.
func (s *Store) SetThreadID(chatID, threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		return false
	}
	chat.ThreadID = threadID
	return true
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AddMessage creates a message with a fresh ID and timestamp and appends
// it to the chat. Returns the new message's ID and whether the chat
// existed. The first user message of an untitled chat names the chat.
func (s *Store) AddMessage(chatID string, role model.Role, text string) (string, bool) {
	msg := model.NewMessage(role, text)
	if !s.AppendMessage(chatID, msg) {
		return "", false
	}
	return msg.ID, true
}

// AppendMessage appends an already-built message to the chat.
// Reports whether the chat existed.
func (s *Store) AppendMessage(chatID string, msg *model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		return false
	}
	chat.AddMessage(msg)

	if msg.Role == model.RoleUser && chat.Title == model.DefaultChatTitle && len(chat.Messages) == 1 {
		chat.Title = util.TruncateRunes(msg.Text, chatTitleRunes)
	}
	return true
}

// UpdateMessage applies fn to the message in place. Reports whether both
// IDs resolved; a stale reference is a silent no-op.
func (s *Store) UpdateMessage(chatID, messageID string, fn func(*model.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		return false
	}
	msg := chat.MessageByID(messageID)
	if msg == nil {
		return false
	}
	fn(msg)
	chat.UpdatedAt = msg.Timestamp
	return true
}

// DeleteMessage removes a message from a chat. Reports whether both IDs
// resolved.
func (s *Store) DeleteMessage(chatID, messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.chatLocked(chatID)
	if chat == nil {
		return false
	}
	for i, msg := range chat.Messages {
		if msg.ID == messageID {
			chat.Messages = append(chat.Messages[:i], chat.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// =============================================================================
// LOADING STATE
// =============================================================================

// IsLoading reports whether any chat has an outstanding turn.
// This is the global "disable sending" affordance.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight) > 0
}

// IsBusy reports whether the given chat has an outstanding turn.
func (s *Store) IsBusy(chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, busy := s.inflight[chatID]
	return busy
}

// CancelTurn cancels the chat's in-flight turn without touching its
// messages. Reports whether a turn was cancelled.
func (s *Store) CancelTurn(chatID string) bool {
	s.mu.RLock()
	cancel := s.inflight[chatID]
	s.mu.RUnlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// beginTurn records an in-flight turn for the chat.
// Fails if the chat already has one.
func (s *Store) beginTurn(chatID string, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[chatID]; busy {
		return ErrTurnInFlight
	}
	s.inflight[chatID] = cancel
	return nil
}

// endTurn clears the in-flight record. Guaranteed to run on every exit
// path of a turn, success or failure.
func (s *Store) endTurn(chatID string) {
	s.mu.Lock()
	cancel := s.inflight[chatID]
	delete(s.inflight, chatID)
	finished := s.hooks.OnTurnFinished
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if finished != nil {
		finished(chatID)
	}
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// chatLocked returns the live chat with the given ID. Caller holds the lock.
func (s *Store) chatLocked(chatID string) *model.Chat {
	if chatID == "" {
		return nil
	}
	for _, chat := range s.chats {
		if chat.ID == chatID {
			return chat
		}
	}
	return nil
}

// indexLocked returns the position of the chat, or -1. Caller holds the lock.
func (s *Store) indexLocked(chatID string) int {
	for i, chat := range s.chats {
		if chat.ID == chatID {
			return i
		}
	}
	return -1
}
