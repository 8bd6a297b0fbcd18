package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny limit clamps to 4", "hello", 1, "h..."},
		{"empty string", "", 10, ""},
		{"multibyte backs off to rune boundary", "日本語のテキスト", 10, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.n))
		})
	}
}

func TestTruncateMultibyteStaysValidUTF8(t *testing.T) {
	s := "командная строка и ещё немного текста"
	for n := 4; n < len(s); n++ {
		out := Truncate(s, n)
		assert.True(t, utf8.ValidString(out), "n=%d produced invalid UTF-8: %q", n, out)
		assert.LessOrEqual(t, len(out), n)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"ascii under limit", "short", 50, "short"},
		{"ascii over limit", "abcdefghij", 8, "abcde..."},
		{"multibyte counted by rune", "héllo wörld", 11, "héllo wörld"},
		{"multibyte truncated", "日本語のテキストです", 8, "日本語のテ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateRunes(tt.input, tt.n))
		})
	}
}

func TestTruncateMap(t *testing.T) {
	assert.Equal(t, "", TruncateMap(nil, 20))

	got := TruncateMap(map[string]any{"path": "a.txt", "mode": "overwrite"}, 100)
	assert.Equal(t, "mode=overwrite, path=a.txt", got)

	long := TruncateMap(map[string]any{"command": "some very long shell command here"}, 20)
	assert.Len(t, long, 20)
	assert.Contains(t, long, "...")
}
