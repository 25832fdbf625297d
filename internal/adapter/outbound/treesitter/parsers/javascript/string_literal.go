package javascriptparser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// cookStringLiteral returns the runtime value of a quoted JavaScript string
// literal as written in source, escapes decoded.
func cookStringLiteral(raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	quote := raw[0]
	if (quote != '"' && quote != '\'') || raw[len(raw)-1] != quote {
		return "", false
	}
	return decodeEscapes(raw[1 : len(raw)-1]), true
}

// decodeEscapes decodes JavaScript escape sequences. Go strings hold UTF-8,
// so an unpaired surrogate escape such as \uD800 decodes to U+FFFD.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte(c)
			break
		}

		e := s[i+1]
		i += 2

		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case 'x':
			if v, ok := parseHex(s, i, 2); ok {
				b.WriteRune(rune(v))
				i += 2
			} else {
				b.WriteByte('x')
			}
		case 'u':
			r, n, ok := readUnicodeEscape(s[i:])
			if !ok {
				b.WriteByte('u')
				continue
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(s[i:], `\u`) {
				if low, m, ok := readUnicodeEscape(s[i+2:]); ok {
					if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
						r = pair
						i += 2 + m
					}
				}
			}
			b.WriteRune(r)
		default:
			if e < utf8.RuneSelf {
				b.WriteByte(e)
				continue
			}
			r, size := utf8.DecodeRuneInString(s[i-1:])
			i = i - 1 + size
			if r != '\u2028' && r != '\u2029' {
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}

// readUnicodeEscape reads the part of a \u escape after the "u": either four
// hex digits or a braced code point.
func readUnicodeEscape(s string) (rune, int, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), end + 1, true
	}

	v, ok := parseHex(s, 0, 4)
	if !ok {
		return 0, 0, false
	}
	return rune(v), 4, true
}

func parseHex(s string, start, n int) (uint64, bool) {
	if start+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}
