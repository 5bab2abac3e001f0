// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main Bubble Tea view for medinsight.
//
// The view composes the chat sidebar, the message viewport, the thinking
// spinner, the input box, and the status bar into one screen driven by
// the conversation store.
//
// # Key Types
//
//   - Model: the Bubble Tea model returned by New
//   - KeyMap: all keyboard bindings, with help text
//
// # Event Flow
//
// Store hooks run on streaming goroutines. They publish messages onto a
// buffered channel; waitForEvent feeds that channel into the Bubble Tea
// update loop, so all view mutation happens on the UI goroutine.
//
// # Usage
//
//	m := chat.New(st, client, cfg, preferences)
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package chat
