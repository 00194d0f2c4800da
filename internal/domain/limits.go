package domain

import (
	"strings"
	"unicode/utf8"
)

// Field length limits, in characters. Writes truncate to these limits
// rather than reject.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 2000
	MaxNotesLength       = 5000
	MaxImageURLLength    = 1000
	MaxSiteNameLength    = 200
	MaxTypeLength        = 100
	MaxFaviconLength     = 200
	MaxTagNameLength     = 100
	MaxUserNameLength    = 200
)

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// TrimTruncate trims surrounding whitespace and then truncates to n characters.
func TrimTruncate(s string, n int) string {
	return Truncate(strings.TrimSpace(s), n)
}
