package identity

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLabel bounds label length in runes.
const DefaultMaxLabel = 100

// MaxSegmentBytes is the longest single path segment common filesystems
// accept. Labels and file names are bounded by it whatever their rune count.
const MaxSegmentBytes = 255

// minLabel leaves room for a disambiguating suffix.
const minLabel = 24

// fileNameSlack is kept free in file names for a "_N" dedupe suffix.
const fileNameSlack = 16

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	separatorRun = regexp.MustCompile(`[_\s]+`)
)

// Sanitize makes name safe as a single path segment: characters that are
// illegal on common filesystems become "_", runs of "_" and whitespace
// collapse to one space, leading dots are removed and the result is cut to
// max runes and MaxSegmentBytes bytes. It returns "" when nothing usable
// remains.
func Sanitize(name string, max int) string {
	s := illegalChars.ReplaceAllString(name, "_")
	s = separatorRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ". ")
	return truncate(s, max, MaxSegmentBytes)
}

// truncate cuts s to at most maxRunes runes and maxBytes bytes, never
// splitting a rune. A limit <= 0 is not applied.
func truncate(s string, maxRunes, maxBytes int) string {
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	if maxBytes > 0 && len(s) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return strings.TrimSpace(s)
}

// SanitizeFileName replaces characters that are illegal in file names with
// "_" but otherwise keeps the name intact. Long names are shortened before
// the extension so a dedupe suffix still fits in MaxSegmentBytes. It returns
// "file" when the name is empty or consists only of dots.
func SanitizeFileName(name string) string {
	s := illegalChars.ReplaceAllString(name, "_")
	s = strings.TrimLeft(strings.TrimSpace(s), ".")
	if s == "" {
		return "file"
	}

	limit := MaxSegmentBytes - fileNameSlack
	if len(s) <= limit {
		return s
	}
	ext := path.Ext(s)
	if len(ext) > fileNameSlack {
		ext = ""
	}
	base := truncate(strings.TrimSuffix(s, ext), 0, limit-len(ext))
	if base == "" {
		base = "file"
	}
	return base + ext
}
