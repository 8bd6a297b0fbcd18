// Package textutil provides the truncation helpers used for session titles
// and tool argument previews.
package textutil

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Truncate shortens a string to at most n bytes with ellipsis, backing
// off to a rune boundary so multibyte input never yields invalid UTF-8.
// If n < 4, uses n = 4 to ensure room for "...".
func Truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// TruncateRunes truncates by rune count, not byte count. Session titles are
// limited this way so multibyte prompts keep a stable visible length.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return string(runes[:n-3]) + "..."
}

// TruncateMap formats a map[string]any as "key=value, ..." with max length.
// Keys are sorted so the preview is stable across runs.
func TruncateMap(args map[string]any, maxLen int) string {
	if args == nil {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return Truncate(strings.Join(parts, ", "), maxLen)
}
