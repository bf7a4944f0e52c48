// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nlsql

import "strings"

// sentinel is the marker the model returns when no valid SQL can be
// produced for the instruction.
const sentinel = "X"

// sanitizeCompletion normalizes raw completion text: surrounding whitespace,
// surrounding quote characters, and literal escaped-quote sequences are
// removed. This handles models that wrap answers like "\"X\"" or quote the
// whole statement, without attempting full JSON-aware unescaping.
func sanitizeCompletion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	return strings.ReplaceAll(s, `\"`, "")
}

// isSentinel reports whether sanitized completion text signals that no SQL
// could be generated. The prefix match is a deliberate tolerance for models
// that append commentary after the marker despite instructions; it can
// misclassify a statement that genuinely starts with "X" (say, a table named
// Xray), which is accepted as a known false-positive risk.
func isSentinel(s string) bool {
	return s == sentinel || strings.HasPrefix(s, sentinel)
}
