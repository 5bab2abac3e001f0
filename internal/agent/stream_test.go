// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/jeranaias/medinsight-tui/internal/model"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	input := "data: {\"type\":\"step\"}\n\ndata: {\"type\":\"final\"}\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	first, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(first) != `{"type":"step"}` {
		t.Errorf("First frame = %q", first)
	}

	second, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(second) != `{"type":"final"}` {
		t.Errorf("Second frame = %q", second)
	}

	if _, err := reader.ReadEvent(); err != io.EOF {
		t.Errorf("Expected io.EOF at stream end, got %v", err)
	}
}

func TestSSEReader_IgnoresNonConformingLines(t *testing.T) {
	input := strings.Join([]string{
		": comment line",
		"event: progress",
		"id: 42",
		"not a frame at all",
		"data: {\"type\":\"step\",\"thought\":\"ok\"}",
		"",
	}, "\n")
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}

	ev, ok := DecodeEvent(data)
	if !ok {
		t.Fatal("Expected a decodable event")
	}
	if ev.Thought != "ok" {
		t.Errorf("Thought = %q, want %q", ev.Thought, "ok")
	}
}

func TestSSEReader_CRLFAndUnterminatedFinalLine(t *testing.T) {
	input := "data: {\"type\":\"step\"}\r\ndata: {\"type\":\"final\"}"
	reader := NewSSEReader(strings.NewReader(input))

	first, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(first) != `{"type":"step"}` {
		t.Errorf("First frame = %q", first)
	}

	// The last line has no trailing newline; it must still be delivered.
	second, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent on unterminated line failed: %v", err)
	}
	if string(second) != `{"type":"final"}` {
		t.Errorf("Second frame = %q", second)
	}
}

// =============================================================================
// FOLD TESTS
// =============================================================================

func foldString(t *testing.T, input string) *Accumulator {
	t.Helper()
	acc, err := Fold(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Fold failed: %v", err)
	}
	return acc
}

func TestFold_FullTurn(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "step", "step": 1, "tool": "sql_query", "duration": 0.5}`,
		``,
		`data: {"type": "tool_result", "result": "[{\"month\":\"Jan\",\"cases\":12}]", "duration": 1.2}`,
		``,
		`data: {"type": "step", "step": 2, "tool": "thought", "thought": "querying database"}`,
		``,
		`data: {"type": "visualization", "data": {"data": [], "layout": {}}}`,
		``,
		`data: {"type": "final", "answer": "Here are the cases", "thread_id": "t1"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if acc.FinalAnswer != "Here are the cases" {
		t.Errorf("FinalAnswer = %q", acc.FinalAnswer)
	}
	if acc.LastThought != "querying database" {
		t.Errorf("LastThought = %q", acc.LastThought)
	}
	if acc.ThreadID != "t1" {
		t.Errorf("ThreadID = %q", acc.ThreadID)
	}
	if len(acc.Visualization) == 0 {
		t.Error("Expected a visualization payload")
	}
	if len(acc.Steps) != 2 {
		t.Fatalf("Expected 2 steps (tool call + thought), got %d", len(acc.Steps))
	}
	if acc.Steps[0].Status != model.StepSuccess {
		t.Errorf("Tool step should be completed by its result, got %q", acc.Steps[0].Status)
	}
	if acc.Steps[0].Output == "" {
		t.Error("Tool result output should be recorded on the step")
	}
}

func TestFold_MalformedFrameBetweenValidFrames(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "step", "thought": "first"}`,
		`data: {not valid json`,
		`data: {"type": "step", "thought": "second"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if acc.LastThought != "second" {
		t.Errorf("LastThought = %q, want %q", acc.LastThought, "second")
	}
	if len(acc.Steps) != 2 {
		t.Errorf("Expected both valid frames folded, got %d steps", len(acc.Steps))
	}
}

func TestFold_ChunkFragmentationIdempotence(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "step", "step": 1, "tool": "sql_query"}`,
		`data: {"type": "step", "thought": "думаю о данных"}`, // multi-byte runes
		`data: {"type": "visualization", "data": {"layout": {"title": "Случаи"}}}`,
		`data: {"type": "final", "answer": "готово", "thread_id": "t9"}`,
		``,
	}, "\n")

	whole, err := Fold(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Fold(whole) failed: %v", err)
	}

	// One byte at a time must fold to the same accumulator, including
	// frames split inside multi-byte sequences.
	bytewise, err := Fold(iotest.OneByteReader(strings.NewReader(input)), nil)
	if err != nil {
		t.Fatalf("Fold(bytewise) failed: %v", err)
	}

	if !reflect.DeepEqual(whole, bytewise) {
		t.Errorf("Byte-at-a-time fold differs:\nwhole:    %+v\nbytewise: %+v", whole, bytewise)
	}
}

func TestFold_LastWriteWins(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "visualization", "data": {"v": 1}}`,
		`data: {"type": "visualization", "data": {"v": 2}}`,
		`data: {"type": "step", "thought": "old"}`,
		`data: {"type": "step", "thought": "new"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if string(acc.Visualization) != `{"v": 2}` {
		t.Errorf("Visualization = %s, want the last payload", acc.Visualization)
	}
	if acc.LastThought != "new" {
		t.Errorf("LastThought = %q, want %q", acc.LastThought, "new")
	}
}

func TestFold_FinalVisualizationOverrides(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "visualization", "data": {"v": 1}}`,
		`data: {"type": "final", "answer": "done", "visualization": {"v": "final"}}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if string(acc.Visualization) != `{"v": "final"}` {
		t.Errorf("Visualization = %s, want the final event's payload", acc.Visualization)
	}
}

func TestFold_VisualizationWithoutPayloadIsNoOp(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "visualization", "data": {"v": 1}}`,
		`data: {"type": "visualization"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if string(acc.Visualization) != `{"v": 1}` {
		t.Errorf("Visualization = %s, payload-less event should be a no-op", acc.Visualization)
	}
}

func TestFold_ErrorEvent(t *testing.T) {
	acc := foldString(t, `data: {"type": "error", "message": "database locked"}`+"\n")

	if acc.ErrorText != "Error: database locked" {
		t.Errorf("ErrorText = %q", acc.ErrorText)
	}
	if acc.Text() != "Error: database locked" {
		t.Errorf("Text() = %q, error should render as the agent message", acc.Text())
	}
}

func TestFold_ErrorDoesNotTerminateDecoding(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "error", "message": "transient"}`,
		`data: {"type": "final", "answer": "recovered", "thread_id": "t1"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if acc.FinalAnswer != "recovered" {
		t.Errorf("FinalAnswer = %q, frames after an error must still fold", acc.FinalAnswer)
	}
}

func TestFold_UnknownEventKindIgnored(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "end"}`,
		`data: {"type": "telemetry", "payload": 1}`,
		`data: {"type": "step", "thought": "still here"}`,
		``,
	}, "\n")

	acc := foldString(t, input)

	if acc.LastThought != "still here" {
		t.Errorf("LastThought = %q", acc.LastThought)
	}
	if len(acc.Steps) != 1 {
		t.Errorf("Unknown events should not produce steps, got %d", len(acc.Steps))
	}
}

func TestFold_EventCallbackArrivalOrder(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "step", "thought": "a"}`,
		`data: {"type": "visualization", "data": {}}`,
		`data: {"type": "final", "answer": "b"}`,
		``,
	}, "\n")

	var kinds []EventKind
	_, err := Fold(strings.NewReader(input), func(ev Event) {
		kinds = append(kinds, ev.Type)
	})
	if err != nil {
		t.Fatalf("Fold failed: %v", err)
	}

	want := []EventKind{EventStep, EventVisualization, EventFinal}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Callback order = %v, want %v", kinds, want)
	}
}

// =============================================================================
// ACCUMULATOR TEXT RESOLUTION TESTS
// =============================================================================

func TestAccumulator_Text(t *testing.T) {
	tests := []struct {
		name string
		acc  Accumulator
		want string
	}{
		{"final answer wins", Accumulator{FinalAnswer: "answer", LastThought: "thought"}, "answer"},
		{"thought fallback", Accumulator{LastThought: "still thinking"}, "still thinking"},
		{"fixed placeholder", Accumulator{}, FallbackAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acc.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// EVENT DECODE TESTS
// =============================================================================

func TestDecodeEvent_Malformed(t *testing.T) {
	if _, ok := DecodeEvent([]byte(`{broken`)); ok {
		t.Error("Malformed payload should not decode")
	}
}

func TestDecodeEvent_Step(t *testing.T) {
	data := []byte(`{"type": "step", "step": 3, "tool": "sql_query", "duration": 1.5}`)
	ev, ok := DecodeEvent(data)
	if !ok {
		t.Fatal("Expected event to decode")
	}
	if ev.Type != EventStep || ev.Step != 3 || ev.Tool != "sql_query" {
		t.Errorf("Decoded event = %+v", ev)
	}
}

func TestDecodeEvent_FinalAnswerShapes(t *testing.T) {
	// The answer field stays raw; extraction happens separately.
	data := []byte(`{"type": "final", "answer": {"answer": "42"}, "thread_id": "t1"}`)
	ev, ok := DecodeEvent(data)
	if !ok {
		t.Fatal("Expected event to decode")
	}
	var probe map[string]any
	if err := json.Unmarshal(ev.Answer, &probe); err != nil {
		t.Fatalf("Answer should preserve the raw object: %v", err)
	}
}
