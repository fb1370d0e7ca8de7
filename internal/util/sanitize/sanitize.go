// Package sanitize normalizes script text before parsing.
//
// Task inputs are plain text files that may arrive from any editor or
// platform, so command lines can carry stray carriage returns, a BOM,
// or invisible Unicode characters that split or mangle tokens. Line
// strips those without touching visible spacing, since quoted write
// payloads keep their inner whitespace verbatim.
package sanitize

import "strings"

// Invisible characters that survive copy-paste and break tokenizing.
var invisibleReplacer = strings.NewReplacer(
	"​", "", // Zero-width space
	"‌", "", // Zero-width non-joiner
	"‍", "", // Zero-width joiner
	"﻿", "", // Zero-width no-break space (BOM)
	"­", "", // Soft hyphen
	"⁠", "", // Word joiner
	"᠎", "", // Mongolian vowel separator
)

// Line normalizes a single script line: carriage returns and invisible
// Unicode characters are removed and outer whitespace is trimmed. Inner
// spacing is preserved.
func Line(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = invisibleReplacer.Replace(s)
	return strings.TrimSpace(s)
}
