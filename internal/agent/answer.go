// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// ANSWER EXTRACTION
// =============================================================================

// The final event's answer field arrives in one of three shapes: a plain
// string, a JSON-encoded string, or a structured object. Each shape has a
// deterministic extraction rule; nothing here ever fails, the worst case
// degrades to a raw or serialized representation.

// ExtractAnswer resolves the answer field of a final event to display text.
//
// Rules:
//   - absent/empty -> ""
//   - plain string -> the string itself, unless it looks like JSON
//     (starts with '{' or '['), in which case it is parsed and the
//     object rule applies to the result; on parse failure the raw
//     string is used
//   - object -> the "answer" field, else the "text" field, else the
//     full JSON serialization of the object
//   - any other JSON value -> its serialization
func ExtractAnswer(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extractFromString(s)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Not valid JSON at all; show what arrived
		return strings.TrimSpace(string(raw))
	}
	return extractFromValue(v)
}

// extractFromString applies the string-shape rule: JSON-looking strings are
// parsed and resolved like objects, anything else passes through.
func extractFromString(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	return extractFromValue(v)
}

// extractFromValue resolves a decoded JSON value, preferring the named
// "answer" and "text" fields of objects.
func extractFromValue(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return serialize(v)
	}

	if answer, ok := obj["answer"].(string); ok && answer != "" {
		return answer
	}
	if text, ok := obj["text"].(string); ok && text != "" {
		return text
	}
	return serialize(v)
}

// serialize renders a decoded JSON value back to compact JSON.
func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
