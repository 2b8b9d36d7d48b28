package redsys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	got := SanitizeText("  Pack\x00 de \t\n  3 clases\x7f  ", MaxDescriptionLength)
	v, ok := got.Get()
	assert.True(t, ok)
	assert.Equal(t, "Pack de 3 clases", v)
}

func TestSanitizeText_Blank(t *testing.T) {
	for _, s := range []string{"", "   ", "\t\n", "\x00\x01"} {
		assert.False(t, SanitizeText(s, 60).IsPresent(), "%q", s)
	}
}

func TestSanitizeText_Truncates(t *testing.T) {
	got := SanitizeText(strings.Repeat("ñ", 70), MaxTitularLength)
	assert.Equal(t, strings.Repeat("ñ", 60), got.Value())

	got = SanitizeText("abcde fghij", 6)
	assert.Equal(t, "abcde", got.Value())
}

func TestSanitizeText_InvalidUTF8(t *testing.T) {
	got := SanitizeText("caf\xe9 bar", 60)
	assert.Equal(t, "caf bar", got.Value())
}
