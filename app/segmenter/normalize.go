package segmenter

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// invisibleRunes drops zero-width separators, bidi marks and other control
// characters that social platforms and OCR smuggle into captions. Newlines
// and tabs survive so line splitting still works.
var invisibleRunes = runes.Remove(runes.Predicate(func(r rune) bool {
	switch r {
	case '\n', '\t':
		return false
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	}
	return unicode.Is(unicode.Cf, r) || (unicode.IsControl(r) && r != '\r')
}))

var normalizer = transform.Chain(invisibleRunes, norm.NFC)

// normalizeText decodes HTML entities, strips invisible runes, NFC
// normalizes, and splits into trimmed lines.
func normalizeText(text string) []string {
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if normalized, _, err := transform.String(normalizer, text); err == nil {
		text = normalized
	}

	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		lines = append(lines, strings.TrimSpace(line))
	}

	return lines
}

// isSubstantive reports whether a line carries letters or digits at all.
// Pure-emoji and decoration-only lines are not substantive.
func isSubstantive(line string) bool {
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
