// Package quran holds the in-memory Quran corpus: the dataset loader, the
// verse lookup and filter operations, and the diacritic-insensitive search.
//
// A Corpus is built once at startup (see Load and LoadDefault) and is never
// mutated afterwards, so a single *Corpus may be shared by any number of
// goroutines without locking.
package quran

// Chapter is a sura: its name, the optional bismillah line printed before
// its first aya, and its ayat in source order.
type Chapter struct {
	Name      string
	Bismillah string
	Verses    []string
}

// HasBismillah reports whether the dataset recorded a bismillah for the sura.
func (ch *Chapter) HasBismillah() bool {
	return ch.Bismillah != ""
}

// Verse returns the text of the 1-based aya n.
func (ch *Chapter) Verse(n int) (string, bool) {
	if n < 1 || n > len(ch.Verses) {
		return "", false
	}
	return ch.Verses[n-1], true
}

// Corpus is the loaded dataset. Chapter numbers are 1-based and dense.
type Corpus struct {
	Chapters []Chapter

	// Fingerprint is the hex BLAKE3-256 digest of the dataset bytes.
	Fingerprint string
}

// Len returns the number of suras.
func (c *Corpus) Len() int {
	return len(c.Chapters)
}

// VerseCount returns the number of ayat across all suras.
func (c *Corpus) VerseCount() int {
	n := 0
	for i := range c.Chapters {
		n += len(c.Chapters[i].Verses)
	}
	return n
}

// Chapter returns the 1-based sura n. The second result is false when n is
// out of range.
func (c *Corpus) Chapter(n int) (*Chapter, bool) {
	if n < 1 || n > len(c.Chapters) {
		return nil, false
	}
	return &c.Chapters[n-1], true
}

// Verse returns the text of aya verse in sura chapter, both 1-based.
// Out-of-range input in either dimension yields ("", false).
func (c *Corpus) Verse(chapter, verse int) (string, bool) {
	ch, ok := c.Chapter(chapter)
	if !ok {
		return "", false
	}
	return ch.Verse(verse)
}
