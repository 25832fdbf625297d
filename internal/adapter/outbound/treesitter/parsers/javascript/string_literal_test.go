package javascriptparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCookStringLiteral(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{name: "double quoted", raw: `"edge"`, want: "edge", ok: true},
		{name: "single quoted", raw: `'edge'`, want: "edge", ok: true},
		{name: "empty", raw: `""`, want: "", ok: true},
		{name: "simple escapes", raw: `"a\nb\tc\\d\"e\'f"`, want: "a\nb\tc\\d\"e'f", ok: true},
		{name: "control escapes", raw: `"\b\f\v\r\0"`, want: "\b\f\v\r\x00", ok: true},
		{name: "hex escape", raw: `"\x41\x62"`, want: "Ab", ok: true},
		{name: "unicode escape", raw: `"\u0041"`, want: "A", ok: true},
		{name: "braced unicode escape", raw: `"\u{1F600}"`, want: "\U0001F600", ok: true},
		{name: "surrogate pair", raw: `"\uD83D\uDE00"`, want: "\U0001F600", ok: true},
		{name: "lone surrogate", raw: `"\uD83Dx"`, want: "\uFFFDx", ok: true},
		{name: "lone high surrogate at end", raw: `"\uD800"`, want: "\uFFFD", ok: true},
		{name: "lone low surrogate", raw: `"\uDC00"`, want: "\uFFFD", ok: true},
		{name: "line continuation", raw: "\"us-\\\neast\"", want: "us-east", ok: true},
		{name: "crlf line continuation", raw: "\"us-\\\r\neast\"", want: "us-east", ok: true},
		{name: "identity escape", raw: `"\q"`, want: "q", ok: true},
		{name: "non-ascii identity escape", raw: `"\é"`, want: "é", ok: true},
		{name: "malformed hex is kept", raw: `"\xZZ"`, want: "xZZ", ok: true},
		{name: "trailing backslash", raw: `"a\"`, want: `a\`, ok: true},
		{name: "utf8 passthrough", raw: `"東京"`, want: "東京", ok: true},
		{name: "mismatched quotes", raw: `"edge'`, ok: false},
		{name: "template", raw: "`edge`", ok: false},
		{name: "too short", raw: `"`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cookStringLiteral(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
