package redsys

import (
	"strings"
	"unicode"

	"paylink/entity"
)

// Gateway limits for free-text fields, in characters.
const (
	MaxDescriptionLength = 125
	MaxTitularLength     = 60
)

// SanitizeText removes control characters, collapses whitespace runs into a
// single space, trims and truncates to max characters. Blank input yields an
// absent value.
func SanitizeText(text string, max int) entity.Optional {
	text = strings.ToValidUTF8(text, "")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if runes := []rune(cleaned); max > 0 && len(runes) > max {
		cleaned = strings.TrimSpace(string(runes[:max]))
	}
	if cleaned == "" {
		return entity.Optional{}
	}
	return entity.Some(cleaned)
}
