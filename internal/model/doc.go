// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages and
// agent reasoning steps.
//
// This package defines the core domain types used throughout the
// application for representing multi-chat conversation state and the
// transparency trace the agent streams during a turn.
//
// # Key Types
//
//   - Chat: Container for one conversation with messages and the
//     server-assigned thread identifier
//   - Message: Single message with role, text, timestamp, and optional
//     chart attachments
//   - Step: One recorded unit of agent reasoning or tool invocation
//   - Chart: Legacy structured chart fallback (title, mode, points)
//
// # Usage
//
// Create a chat and append messages:
//
//	chat := model.NewChat("Cases by month")
//	chat.AddMessage(model.NewUserMessage("show me cases in 2023"))
//
// Attach a chart payload to an agent message:
//
//	msg := model.NewAgentMessage("Here are the cases")
//	msg.Visualization = payload
package model
