// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client and stream interpreter for the
// Medical Insight API.
//
// The backend streams each conversation turn as Server-Sent Events. Every
// frame is a "data:" line carrying a JSON payload discriminated by a
// "type" field: reasoning steps, tool results, visualization payloads,
// the final answer, or an error. The interpreter folds that sequence into
// an Accumulator, the best known state of the in-flight answer.
//
// # Key Types
//
//   - Client: HTTP client for the streaming, history and health endpoints
//   - SSEReader: line-oriented SSE frame reader
//   - Event: one decoded frame
//   - Accumulator: ephemeral fold state for one turn
//
// # Decoding Guarantees
//
//   - Frames split across chunk boundaries decode identically to a
//     contiguous read
//   - Lines without the "data:" field are ignored
//   - A malformed payload drops that single event, never the stream
//   - Unknown event kinds are ignored
//
// # Usage
//
// Stream one turn:
//
//	client, _ := agent.NewClient("http://localhost:8000")
//	acc, err := client.StreamQuery(ctx, "show me cases in 2023", threadID, nil)
//	if err == nil {
//	    fmt.Println(acc.Text())
//	}
package agent
