// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// STREAMING: Robust SSE parsing with per-event error recovery

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// FallbackAnswer is shown when a stream ends with neither a final answer
// nor a partial thought.
const FallbackAnswer = "Response received"

// thoughtTitleRunes caps the step title derived from a thought preview.
const thoughtTitleRunes = 80

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventKind discriminates the payloads in the response stream.
type EventKind string

const (
	EventStep          EventKind = "step"
	EventToolResult    EventKind = "tool_result"
	EventVisualization EventKind = "visualization"
	EventFinal         EventKind = "final"
	EventError         EventKind = "error"
)

// Event is one decoded frame from the response stream.
//
// The wire payload is a flat JSON object discriminated by "type"; only the
// fields matching the declared kind are populated.
type Event struct {
	Type EventKind `json:"type"`

	// step fields
	Step     int     `json:"step,omitempty"`
	Tool     string  `json:"tool,omitempty"`
	Thought  string  `json:"thought,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	// tool_result fields
	Result string `json:"result,omitempty"`

	// visualization fields
	Data json.RawMessage `json:"data,omitempty"`

	// final fields
	Answer        json.RawMessage `json:"answer,omitempty"`
	Insights      []string        `json:"insights,omitempty"`
	Visualization json.RawMessage `json:"visualization,omitempty"`
	ThreadID      string          `json:"thread_id,omitempty"`

	// error fields
	Message string `json:"message,omitempty"`
}

// DecodeEvent parses one frame payload into an Event.
// Returns false if the payload is not valid JSON; a malformed frame is
// dropped without aborting the stream.
func DecodeEvent(data []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a byte stream.
//
// The reader is byte-oriented until a full line is assembled, so frames
// split mid-rune across chunk boundaries decode identically to a single
// contiguous read.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next data frame from the stream.
//
// Lines not beginning with the "data:" field are ignored, as are blank
// lines and SSE comments. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				// Process a final unterminated line before reporting EOF
				if data, ok := dataField(line); ok {
					return data, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		if data, ok := dataField(line); ok {
			return data, nil
		}
	}
}

// dataField extracts the payload from a "data:" line.
// Returns false for blank lines and lines with any other field name.
func dataField(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, false
	}
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	return bytes.TrimSpace(line[5:]), true
}

// =============================================================================
// TURN ACCUMULATOR
// =============================================================================

// Accumulator is the fold state built while consuming one turn's stream.
//
// It tracks the best known state of the in-flight answer: the rolling
// thought preview, the last-seen visualization payload, the extracted
// final answer, the server-assigned thread identifier, and the ordered
// reasoning trace. It exists only for the duration of one turn.
type Accumulator struct {
	LastThought   string
	FinalAnswer   string
	ErrorText     string
	Visualization json.RawMessage
	ThreadID      string
	Steps         []*model.Step
}

// NewAccumulator creates an empty turn accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply folds one event into the accumulator. Events are applied strictly
// in arrival order; repeated fields follow last-write-wins semantics
// relative to that order.
func (a *Accumulator) Apply(ev Event) {
	switch ev.Type {
	case EventStep:
		a.applyStep(ev)
	case EventToolResult:
		a.applyToolResult(ev)
	case EventVisualization:
		// An event without a payload is a no-op
		if len(ev.Data) > 0 {
			a.Visualization = ev.Data
		}
	case EventFinal:
		a.FinalAnswer = ExtractAnswer(ev.Answer)
		if len(ev.Visualization) > 0 {
			a.Visualization = ev.Visualization
		}
		if ev.ThreadID != "" {
			a.ThreadID = ev.ThreadID
		}
	case EventError:
		if ev.Message != "" {
			// Server-reported application errors render as a normal agent
			// message, not a distinct UI error state.
			a.ErrorText = fmt.Sprintf("Error: %s", ev.Message)
			a.FinalAnswer = a.ErrorText
		}
	default:
		// Unknown event kinds (including any explicit end marker) are ignored
	}
}

// applyStep records a step event: a tool invocation, or a rolling thought
// preview when the event carries thought text.
func (a *Accumulator) applyStep(ev Event) {
	if ev.Thought != "" {
		a.LastThought = ev.Thought

		step := model.NewStep(util.TruncateRunes(ev.Thought, thoughtTitleRunes), ev.Tool)
		step.Complete(ev.Thought, durationOf(ev))
		a.Steps = append(a.Steps, step)
		return
	}

	if ev.Tool == "" {
		return
	}
	step := model.NewStep(fmt.Sprintf("Step %d: %s", ev.Step, ev.Tool), ev.Tool)
	step.Duration = durationOf(ev)
	a.Steps = append(a.Steps, step)
}

// applyToolResult completes the most recent running step. A result with no
// matching step still appears in the trace so no output is lost.
func (a *Accumulator) applyToolResult(ev Event) {
	for i := len(a.Steps) - 1; i >= 0; i-- {
		if a.Steps[i].Status == model.StepRunning {
			a.Steps[i].Complete(ev.Result, durationOf(ev))
			return
		}
	}

	step := model.NewStep("Tool result", "")
	step.Complete(ev.Result, durationOf(ev))
	a.Steps = append(a.Steps, step)
}

// Text resolves the display text for the committed agent message: the
// final answer, else the last partial thought, else a fixed placeholder.
func (a *Accumulator) Text() string {
	if a.FinalAnswer != "" {
		return a.FinalAnswer
	}
	if a.LastThought != "" {
		return a.LastThought
	}
	return FallbackAnswer
}

// Fold consumes an entire SSE stream and returns the folded accumulator.
//
// Malformed frames are dropped individually; only transport-level read
// failures abort the fold. The optional callback observes each decoded
// event after it has been applied.
func Fold(r io.Reader, onEvent func(Event)) (*Accumulator, error) {
	acc := NewAccumulator()
	reader := NewSSEReader(r)

	for {
		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return acc, nil
			}
			return acc, err
		}

		ev, ok := DecodeEvent(data)
		if !ok {
			// Frame-level decode failure: skip this one event
			continue
		}

		acc.Apply(ev)
		if onEvent != nil {
			onEvent(ev)
		}
	}
}

// durationOf converts the wire duration (seconds) to a time.Duration.
func durationOf(ev Event) time.Duration {
	return time.Duration(ev.Duration * float64(time.Second))
}
