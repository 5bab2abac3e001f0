// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the multi-chat conversation state and the turn
// orchestration for the Medical Insight client.
//
// The store keeps every chat in volatile memory, most-recent-first, with
// one active selection and one in-flight turn slot per chat. SendMessage
// runs a complete request/response turn: append the user message, stream
// the agent's response through the interpreter in package agent, and
// commit exactly one agent message when the stream ends.
//
// # Key Types
//
//   - Store: chat list, active selection, per-chat turn state
//   - Streamer: the slice of the agent client the store consumes
//   - Hooks: presentation-layer observers (invalidation, turn events)
//
// # Consistency Rules
//
//   - Operations on unknown chat or message IDs are silent no-ops that
//     report not-found instead of raising
//   - Message order within a chat is append order, never reordered
//   - The loading flag is set for the whole span of a turn and cleared
//     on every exit path
//   - Deleting or clearing a chat cancels its in-flight turn
package store
