package media

import (
	"strings"
	"unicode"
)

// MaxTitleRunes bounds the title part of an output filename.
const MaxTitleRunes = 50

// SafeTitle keeps letters, digits, spaces, hyphens and underscores from
// title, trims surrounding space and truncates to MaxTitleRunes.
// An empty result becomes "untitled".
func SafeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())

	if runes := []rune(s); len(runes) > MaxTitleRunes {
		s = string(runes[:MaxTitleRunes])
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// OutputFilename builds "<safe title>_<resolution>.<ext>".
func OutputFilename(title, resolution, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return SafeTitle(title) + "_" + resolution + "." + ext
}
