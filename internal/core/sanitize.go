package core

import (
	"html"
	"strings"
	"unicode/utf8"
)

// Length limits in code points, applied before escaping.
const (
	MaxNicknameLen   = 64
	MaxDecorationLen = 8
	MaxAvatarLen     = 128
	MaxTextLen       = 512
)

// Sanitize trims s, cuts it to maxRunes code points and HTML-escapes the result.
func Sanitize(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	return html.EscapeString(s)
}
