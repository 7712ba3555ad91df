package quran

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Harakat is the range of short-vowel marks removed by Normalize:
// fatha, damma, kasra, shadda and sukun (U+064E..U+0652).
var Harakat = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x064E, Hi: 0x0652, Stride: 1},
	},
}

var stripHarakat = runes.Remove(runes.In(Harakat))

// Normalize removes every rune in Harakat from s and keeps all other runes
// in their original order.
func Normalize(s string) string {
	out, _, err := transform.String(stripHarakat, s)
	if err != nil {
		return s
	}
	return out
}

// Search selects the ayat whose normalized text contains the normalized
// query. Matching is literal and case-sensitive; the empty query selects
// every aya. Verse text is normalized on every call.
func (c *Corpus) Search(query string) Subset {
	q := Normalize(query)
	return c.Filter(func(_, _ int, text string) bool {
		return strings.Contains(Normalize(text), q)
	})
}
