// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// STEP TYPE
// =============================================================================

// StepStatus is the lifecycle state of a reasoning step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// Step records one unit of agent reasoning or tool use, surfaced for
// transparency. Steps are owned by exactly one message and are append-only
// while the turn is in flight.
type Step struct {
	Title    string        `json:"title"`
	Tool     string        `json:"tool"`
	Status   StepStatus    `json:"status"`
	Input    string        `json:"input,omitempty"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// NewStep creates a step in the running state.
func NewStep(title, tool string) *Step {
	return &Step{
		Title:  title,
		Tool:   tool,
		Status: StepRunning,
	}
}

// Complete marks the step successful and records its output and duration.
func (s *Step) Complete(output string, duration time.Duration) {
	s.Status = StepSuccess
	s.Output = output
	s.Duration = duration
}

// Fail marks the step as errored.
func (s *Step) Fail(output string) {
	s.Status = StepError
	s.Output = output
}
