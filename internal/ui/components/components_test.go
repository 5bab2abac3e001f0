// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestRenderChart_Structured(t *testing.T) {
	msg := model.NewAgentMessage("done")
	msg.Chart = &model.Chart{
		Title: "Cases by month",
		Mode:  model.ChartModeBar,
		Points: []model.ChartPoint{
			{Label: "Jan", Value: 10},
			{Label: "Feb", Value: 20},
		},
	}

	out := RenderChart(testTheme(), msg, 80)
	for _, want := range []string{"Cases by month", "Jan", "Feb", "20"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart output missing %q", want)
		}
	}
	// The larger value draws the longer bar
	if strings.Count(out, "#") == 0 {
		t.Error("bar chart should contain bar fill characters")
	}
}

func TestRenderChart_ProbesOpaquePayload(t *testing.T) {
	msg := model.NewAgentMessage("done")
	msg.Visualization = json.RawMessage(`{"title":"Trend","mode":"line","points":[{"month":"Q1","cases":5}]}`)

	out := RenderChart(testTheme(), msg, 80)
	if !strings.Contains(out, "Trend") || !strings.Contains(out, "Q1") {
		t.Errorf("probed payload not rendered: %q", out)
	}
}

func TestRenderChart_ProbesPlotlyFirstTrace(t *testing.T) {
	msg := model.NewAgentMessage("done")
	msg.Visualization = json.RawMessage(`{
		"data": [
			{"x": ["2023", "2024"], "y": [120, 340], "name": "Admissions", "type": "bar"},
			{"x": ["2023"], "y": [1], "name": "ignored second trace"}
		],
		"layout": {"title": {"text": "Yearly admissions"}}
	}`)

	out := RenderChart(testTheme(), msg, 80)
	for _, want := range []string{"Yearly admissions", "2023", "2024", "340"} {
		if !strings.Contains(out, want) {
			t.Errorf("plotly trace output missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "ignored second trace") {
		t.Error("only the first trace should render")
	}
}

func TestRenderChart_PlotlyNumericLabels(t *testing.T) {
	msg := model.NewAgentMessage("done")
	msg.Visualization = json.RawMessage(`{"data":[{"x":[1,2,3],"y":[5,6,7],"type":"line"}]}`)

	out := RenderChart(testTheme(), msg, 80)
	if !strings.Contains(out, "1") || !strings.Contains(out, "=") {
		t.Errorf("numeric-label line trace not rendered: %q", out)
	}
}

func TestRenderChart_UnknownPayloadSummarized(t *testing.T) {
	msg := model.NewAgentMessage("done")
	msg.Visualization = json.RawMessage(`{"spec":{"mark":"area"},"values":[1,2,3]}`)

	out := RenderChart(testTheme(), msg, 80)
	if !strings.Contains(out, "chart payload") {
		t.Errorf("unknown payload should be summarized, got %q", out)
	}
	if !strings.Contains(out, "spec") || !strings.Contains(out, "values") {
		t.Errorf("summary should name top-level keys, got %q", out)
	}
}

func TestRenderChart_NoAttachment(t *testing.T) {
	msg := model.NewAgentMessage("plain text")
	if out := RenderChart(testTheme(), msg, 80); out != "" {
		t.Errorf("message without attachment should render nothing, got %q", out)
	}
}

func TestMessageRenderer(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.SetWidth(80)

	msg := model.NewAgentMessage("Found 42 records.")
	step := model.NewStep("Running registry query", "sql_query")
	step.Complete("ok", 1200*time.Millisecond)
	msg.AddStep(step)

	out := r.Render(msg)
	for _, want := range []string{"Agent", "Found 42 records.", "Running registry query", "sql_query"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered message missing %q", want)
		}
	}
}

func TestMessageRenderer_HideSteps(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.SetWidth(80)
	r.SetShowSteps(false)

	msg := model.NewAgentMessage("answer")
	msg.AddStep(model.NewStep("hidden step", ""))

	if strings.Contains(r.Render(msg), "hidden step") {
		t.Error("steps should be hidden when disabled")
	}
}

func TestSidebar(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetSize(30, 20)

	a := model.NewChat("Diabetes stats")
	b := model.NewChat("Flu questions")
	s.SetChats([]*model.Chat{b, a}, b.ID, map[string]bool{a.ID: true})

	out := s.View()
	if !strings.Contains(out, "Diabetes stats") || !strings.Contains(out, "Flu questions") {
		t.Errorf("sidebar missing chat titles: %q", out)
	}
	if !strings.Contains(out, "> ") {
		t.Error("active chat should be marked")
	}
}

func TestSidebar_Empty(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetSize(30, 20)
	s.SetChats(nil, "", nil)

	if !strings.Contains(s.View(), "No chats yet") {
		t.Error("empty sidebar should show a hint")
	}
}

func TestStatusBar(t *testing.T) {
	b := NewStatusBar(testTheme())
	b.SetWidth(100)
	b.SetServer(ServerOnline, "http://localhost:8000")
	b.SetThreadID("thread-abcdef")

	out := b.View()
	if !strings.Contains(out, "online") {
		t.Errorf("status bar missing server state: %q", out)
	}
	if !strings.Contains(out, "thread:") {
		t.Errorf("status bar missing thread: %q", out)
	}

	b.SetServer(ServerOffline, "")
	if !strings.Contains(b.View(), "offline") {
		t.Error("status bar should show offline state")
	}
}
