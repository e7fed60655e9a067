package util

import "unicode/utf8"

// Truncate cuts s to at most n bytes without splitting a rune
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Ellipsize shortens s to at most n bytes, marking the cut with "..."
func Ellipsize(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return Truncate(s, n-3) + "..."
}
