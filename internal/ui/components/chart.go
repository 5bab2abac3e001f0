// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/medinsight-tui/internal/model"
	"github.com/jeranaias/medinsight-tui/internal/ui/styles"
	"github.com/jeranaias/medinsight-tui/internal/util"
)

// =============================================================================
// CHART RENDERER
// =============================================================================

// maxChartBarWidth caps bar length so labels stay readable.
const maxChartBarWidth = 40

// RenderChart renders a message's chart attachment as a framed terminal
// chart. Structured charts render as horizontal bars; opaque payloads are
// probed for the same shape first and summarized when unrecognized.
func RenderChart(theme *styles.Theme, msg *model.Message, width int) string {
	chart := msg.Chart
	if chart == nil && len(msg.Visualization) > 0 {
		chart = probeVisualization(msg.Visualization)
	}

	if chart == nil || len(chart.Points) == 0 {
		if len(msg.Visualization) > 0 {
			return theme.ChartFrame.Render(
				theme.ChartLabel.Render(summarizePayload(msg.Visualization)))
		}
		return ""
	}

	var sb strings.Builder
	title := chart.Title
	if title == "" {
		title = "Chart"
	}
	sb.WriteString(theme.ChartTitle.Render(title))
	sb.WriteString("\n")

	maxValue := 0.0
	labelWidth := 0
	for _, p := range chart.Points {
		if p.Value > maxValue {
			maxValue = p.Value
		}
		if w := util.StringWidth(p.Label); w > labelWidth {
			labelWidth = w
		}
	}

	barWidth := width - labelWidth - 12
	if barWidth > maxChartBarWidth {
		barWidth = maxChartBarWidth
	}
	if barWidth < 5 {
		barWidth = 5
	}

	fill := "#"
	if chart.Mode == model.ChartModeLine {
		fill = "="
	}

	for _, p := range chart.Points {
		length := 0
		if maxValue > 0 {
			length = int(p.Value / maxValue * float64(barWidth))
		}
		if length < 1 && p.Value > 0 {
			length = 1
		}

		sb.WriteString(theme.ChartLabel.Render(util.PadRight(p.Label, labelWidth)))
		sb.WriteString(" ")
		sb.WriteString(theme.ChartBarEl.Render(strings.Repeat(fill, length)))
		sb.WriteString(theme.ChartLabel.Render(fmt.Sprintf(" %g", p.Value)))
		sb.WriteString("\n")
	}

	return theme.ChartFrame.Render(strings.TrimRight(sb.String(), "\n"))
}

// probeVisualization attempts to read an opaque server payload as the
// structured chart shape, then as a plotly-style figure whose first trace
// carries x/y arrays. Unknown shapes return nil.
func probeVisualization(raw json.RawMessage) *model.Chart {
	var chart model.Chart
	if err := json.Unmarshal(raw, &chart); err == nil && len(chart.Points) > 0 {
		return &chart
	}
	return probePlotlyFigure(raw)
}

// plotlyFigure covers the subset of the server's plotly payloads the
// terminal can render: the first trace's x labels and y values.
type plotlyFigure struct {
	Data []struct {
		X    []json.RawMessage `json:"x"`
		Y    []float64         `json:"y"`
		Name string            `json:"name"`
		Type string            `json:"type"`
	} `json:"data"`
	Layout struct {
		Title json.RawMessage `json:"title"`
	} `json:"layout"`
}

// probePlotlyFigure converts the first trace of a plotly figure into the
// structured chart shape. Returns nil when no trace has paired x/y data.
func probePlotlyFigure(raw json.RawMessage) *model.Chart {
	var fig plotlyFigure
	if err := json.Unmarshal(raw, &fig); err != nil || len(fig.Data) == 0 {
		return nil
	}

	trace := fig.Data[0]
	n := len(trace.Y)
	if len(trace.X) < n {
		n = len(trace.X)
	}
	if n == 0 {
		return nil
	}

	chart := &model.Chart{
		Title: plotlyTitle(fig.Layout.Title, trace.Name),
		Mode:  model.ChartModeBar,
	}
	if trace.Type == "line" || trace.Type == "scatter" {
		chart.Mode = model.ChartModeLine
	}

	for i := 0; i < n; i++ {
		chart.Points = append(chart.Points, model.ChartPoint{
			Label: plotlyLabel(trace.X[i]),
			Value: trace.Y[i],
		})
	}
	return chart
}

// plotlyTitle resolves a figure title, which plotly encodes either as a
// bare string or as {"text": "..."}.
func plotlyTitle(raw json.RawMessage, fallback string) string {
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
			return obj.Text
		}
	}
	return fallback
}

// plotlyLabel renders one x-axis entry, which may be a string or a number.
func plotlyLabel(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%g", n)
	}
	return string(raw)
}

// summarizePayload describes a chart payload that cannot be rendered
// inline, naming its top-level keys so the data is not silently dropped.
func summarizePayload(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Sprintf("[chart payload, %d bytes]", len(raw))
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return fmt.Sprintf("[chart payload, %d bytes]", len(raw))
	}
	return "[chart payload: " + util.TruncateRunes(strings.Join(keys, ", "), 60) + "]"
}
