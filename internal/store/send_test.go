// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/model"
)

// scriptStreamer replays a scripted accumulator or error and records the
// request it saw.
type scriptStreamer struct {
	mu       sync.Mutex
	acc      *agent.Accumulator
	events   []agent.Event
	err      error
	blockCtx bool // when set, block until the context is cancelled

	gotQuery  string
	gotThread string
	started   chan struct{}
}

func (f *scriptStreamer) StreamQuery(ctx context.Context, query, threadID string, onEvent func(agent.Event)) (*agent.Accumulator, error) {
	f.mu.Lock()
	f.gotQuery = query
	f.gotThread = threadID
	started := f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if f.blockCtx {
		<-ctx.Done()
		return agent.NewAccumulator(), ctx.Err()
	}
	if f.err != nil {
		return agent.NewAccumulator(), f.err
	}
	for _, ev := range f.events {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	if f.acc != nil {
		return f.acc, nil
	}
	return agent.NewAccumulator(), nil
}

// =============================================================================
// SEND MESSAGE TESTS
// =============================================================================

func TestSendMessage_FullTurn(t *testing.T) {
	viz := json.RawMessage(`{"data":[],"layout":{}}`)
	streamer := &scriptStreamer{
		acc: &agent.Accumulator{
			FinalAnswer:   "Here are the cases",
			LastThought:   "querying database",
			Visualization: viz,
			ThreadID:      "t1",
		},
	}
	s := New(streamer)

	err := s.SendMessage(context.Background(), "show me cases in 2023")
	require.NoError(t, err)

	chats := s.Chats()
	require.Len(t, chats, 1, "send with no active chat creates one")
	chat := chats[0]

	require.Len(t, chat.Messages, 2)
	user, reply := chat.Messages[0], chat.Messages[1]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "show me cases in 2023", user.Text)
	assert.Equal(t, model.RoleAgent, reply.Role)
	assert.Equal(t, "Here are the cases", reply.Text)
	assert.Equal(t, string(viz), string(reply.Visualization))

	assert.Equal(t, "t1", chat.ThreadID)
	assert.False(t, s.IsLoading(), "loading must be cleared after the turn")
	assert.Equal(t, "", streamer.gotThread, "first turn starts a fresh thread")
}

func TestSendMessage_ReusesExistingChatAndThread(t *testing.T) {
	streamer := &scriptStreamer{acc: &agent.Accumulator{FinalAnswer: "again"}}
	s := New(streamer)
	id := s.CreateChat("existing")
	s.SetThreadID(id, "t7")

	require.NoError(t, s.SendMessage(context.Background(), "follow up"))

	assert.Len(t, s.Chats(), 1)
	assert.Equal(t, "t7", streamer.gotThread, "subsequent turns carry the thread id")
	assert.Equal(t, "t7", s.ChatByID(id).ThreadID, "thread id survives when the server sends none")
}

func TestSendMessage_FallsBackToLastThought(t *testing.T) {
	streamer := &scriptStreamer{acc: &agent.Accumulator{LastThought: "still thinking"}}
	s := New(streamer)

	require.NoError(t, s.SendMessage(context.Background(), "q"))

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "still thinking", chat.Messages[1].Text)
}

func TestSendMessage_FallsBackToPlaceholder(t *testing.T) {
	s := New(&scriptStreamer{})

	require.NoError(t, s.SendMessage(context.Background(), "q"))

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, agent.FallbackAnswer, chat.Messages[1].Text)
}

func TestSendMessage_TransportFailure(t *testing.T) {
	streamer := &scriptStreamer{err: fmt.Errorf("%w: connection refused", agent.ErrServerNotReachable)}
	s := New(streamer)

	err := s.SendMessage(context.Background(), "q")
	require.Error(t, err)

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2, "exactly one agent message on failure")
	assert.Contains(t, chat.Messages[1].Text, "Connection error:")
	assert.False(t, s.IsLoading(), "loading must be cleared on the failure path")
}

func TestSendMessage_EmptyText(t *testing.T) {
	s := New(&scriptStreamer{})
	assert.ErrorIs(t, s.SendMessage(context.Background(), "  \n "), ErrEmptyMessage)
	assert.Empty(t, s.Chats(), "rejected sends must not create chats")
}

func TestSendMessage_OverlappingTurnSameChat(t *testing.T) {
	streamer := &scriptStreamer{blockCtx: true, started: make(chan struct{})}
	s := New(streamer)
	id := s.CreateChat("")

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "first") }()
	<-streamer.started

	assert.True(t, s.IsBusy(id))
	assert.True(t, s.IsLoading())

	// A second send on the same chat is refused while the turn runs.
	err := s.SendMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Len(t, s.ChatByID(id).Messages, 1, "refused send must not append")

	// Unblock by clearing the chat, which cancels the turn.
	require.True(t, s.ClearChat(id))
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, s.IsLoading())
}

func TestSendMessage_CancelledTurnLeavesNoNotice(t *testing.T) {
	streamer := &scriptStreamer{blockCtx: true, started: make(chan struct{})}
	s := New(streamer)
	id := s.CreateChat("")

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "query") }()
	<-streamer.started

	require.True(t, s.ClearChat(id))
	<-done

	// The cleared chat must not receive a connection failure notice.
	assert.Empty(t, s.ChatByID(id).Messages)
}

func TestCancelTurn(t *testing.T) {
	streamer := &scriptStreamer{blockCtx: true, started: make(chan struct{})}
	s := New(streamer)
	id := s.CreateChat("")

	assert.False(t, s.CancelTurn(id), "no turn to cancel yet")

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "query") }()
	<-streamer.started

	require.True(t, s.CancelTurn(id))
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, s.IsBusy(id))

	// The user message stays; only the turn is abandoned.
	require.Len(t, s.ChatByID(id).Messages, 1)
	assert.Equal(t, model.RoleUser, s.ChatByID(id).Messages[0].Role)
}

func TestSendMessage_DeletedChatCommitIsNoOp(t *testing.T) {
	streamer := &scriptStreamer{blockCtx: true, started: make(chan struct{})}
	s := New(streamer)
	id := s.CreateChat("")

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "query") }()
	<-streamer.started

	require.True(t, s.DeleteChat(id))
	<-done

	assert.Nil(t, s.ChatByID(id))
	assert.Empty(t, s.Chats())
	assert.False(t, s.IsLoading())
}

func TestSendMessage_ConcurrentTurnsAcrossChats(t *testing.T) {
	streamer := &scriptStreamer{blockCtx: true, started: make(chan struct{})}
	s := New(streamer)
	first := s.CreateChat("one")

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "slow question") }()
	<-streamer.started

	// A different chat can start its own turn while the first is busy.
	second := s.CreateChat("two")
	assert.True(t, s.IsBusy(first))
	assert.False(t, s.IsBusy(second))

	s.ClearChat(first)
	<-done
}

func TestSendMessage_TurnEventHook(t *testing.T) {
	streamer := &scriptStreamer{
		events: []agent.Event{
			{Type: agent.EventStep, Thought: "working"},
			{Type: agent.EventFinal},
		},
		acc: &agent.Accumulator{FinalAnswer: "done"},
	}
	s := New(streamer)

	var mu sync.Mutex
	var kinds []agent.EventKind
	s.SetHooks(Hooks{OnTurnEvent: func(chatID string, ev agent.Event) {
		mu.Lock()
		kinds = append(kinds, ev.Type)
		mu.Unlock()
	}})

	require.NoError(t, s.SendMessage(context.Background(), "q"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []agent.EventKind{agent.EventStep, agent.EventFinal}, kinds)
}

// =============================================================================
// END-TO-END TURN OVER HTTP
// =============================================================================

// TestSendMessage_EndToEnd runs a full turn through the real agent client
// against an httptest SSE server.
func TestSendMessage_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"type": "step", "step": 1, "tool": "thought", "thought": "querying database"}`,
			`{"type": "visualization", "data": {"data": [{"x": [1], "y": [2]}], "layout": {}}}`,
			`{"type": "final", "answer": "Here are the cases", "thread_id": "t1"}`,
		}
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
		}
	}))
	defer server.Close()

	client, err := agent.NewClient(server.URL)
	require.NoError(t, err)

	s := New(client)
	require.NoError(t, s.SendMessage(context.Background(), "show me cases in 2023"))

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "show me cases in 2023", chat.Messages[0].Text)
	assert.Equal(t, "Here are the cases", chat.Messages[1].Text)
	assert.True(t, chat.Messages[1].HasChart())
	assert.Equal(t, "t1", chat.ThreadID)
	assert.False(t, s.IsLoading())
}

func TestSendMessage_EndToEnd_TransportDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := agent.NewClient(server.URL)
	require.NoError(t, err)

	s := New(client)
	sendErr := s.SendMessage(context.Background(), "anyone there?")
	require.Error(t, sendErr)
	assert.True(t, errors.Is(sendErr, agent.ErrServerNotReachable))

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2)
	assert.Contains(t, chat.Messages[1].Text, "Connection error:")
	assert.False(t, s.IsLoading())
}

func TestSendMessage_EndToEnd_NoFinalEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\": \"step\", \"tool\": \"thought\", \"thought\": \"still thinking\"}\n\n")
	}))
	defer server.Close()

	client, err := agent.NewClient(server.URL)
	require.NoError(t, err)

	s := New(client)
	require.NoError(t, s.SendMessage(context.Background(), "q"))

	chat := s.Chats()[0]
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "still thinking", chat.Messages[1].Text)
}
