package utils

import "strings"

// TruncateForLog returns s on a single line, with whitespace runs collapsed,
// cut to limit runes. An ellipsis marks a cut.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
