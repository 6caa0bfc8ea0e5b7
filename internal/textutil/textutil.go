// Package textutil holds small text helpers shared by the line differ and the
// document loader.
package textutil

import "strings"

// NormalizeLF converts CRLF and lone CR line endings to LF and replaces
// invalid UTF-8 byte sequences with the Unicode replacement character.
func NormalizeLF(s string) string {
	if strings.IndexByte(s, '\r') >= 0 {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

// SplitLines normalizes line endings and splits s into lines.
// The empty string has no lines; a trailing newline yields a final empty
// line so that JoinLines(SplitLines(s)) == NormalizeLF(s).
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(NormalizeLF(s), "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// TruncateRunes cuts s to at most max runes. It reports whether anything
// was removed. max <= 0 means no limit.
func TruncateRunes(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
