// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/medinsight-tui/internal/model"
)

func testChat() *model.Chat {
	chat := model.NewChat("Flu trends 2025")
	chat.ThreadID = "thread-1"

	chat.AddMessage(model.NewUserMessage("Show flu cases by month"))

	agent := model.NewAgentMessage("Cases peaked in February.")
	step := model.NewStep("Querying case registry", "sql_query")
	step.Complete("120 rows", 800*time.Millisecond)
	agent.AddStep(step)
	agent.Chart = &model.Chart{
		Title: "Flu cases",
		Mode:  model.ChartModeLine,
		Points: []model.ChartPoint{
			{Label: "Jan", Value: 110},
			{Label: "Feb", Value: 240},
		},
	}
	chat.AddMessage(agent)

	return chat
}

func TestMarkdownExport(t *testing.T) {
	content, err := NewMarkdownExporter(nil).Export(testChat())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := string(content)

	for _, want := range []string{
		"# Flu trends 2025",
		"[You]",
		"[Agent]",
		"Show flu cases by month",
		"Cases peaked in February.",
		"Querying case registry",
		"sql_query",
		"| Feb | 240 |",
		"thread: thread-1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestMarkdownExport_NoSteps(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeSteps = false

	content, err := NewMarkdownExporter(opts).Export(testChat())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(content), "Analysis steps") {
		t.Error("steps should be omitted when IncludeSteps is false")
	}
}

func TestMarkdownExport_EmptyChat(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(model.NewChat("")); err == nil {
		t.Error("expected error for chat with no messages")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil chat")
	}
}

func TestJSONExport_RoundTrip(t *testing.T) {
	chat := testChat()

	content, err := NewJSONExporter(nil).Export(chat)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded model.Chat
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if decoded.ID != chat.ID || decoded.ThreadID != "thread-1" {
		t.Errorf("round-trip identity mismatch: %+v", decoded)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(decoded.Messages))
	}
	if len(decoded.Messages[1].Steps) != 1 {
		t.Errorf("agent message steps not preserved")
	}
}

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportMarkdown(testChat(), opts)
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("exported file unreadable: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q, want .md suffix", path)
	}
	if !strings.Contains(string(data), "Flu trends 2025") {
		t.Error("file content missing chat title")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"has spaces here", "has_spaces_here"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "chat"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
