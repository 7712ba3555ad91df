package quran

import "iter"

// Predicate decides whether aya verse of sura chapter (both 1-based) belongs
// to a Subset.
type Predicate func(chapter, verse int, text string) bool

// Subset is a view over a Corpus: for every sura, the ordered 0-based
// positions of the ayat selected by a Predicate. Suras without matches keep
// their slot. A Subset does not own the corpus text.
type Subset struct {
	corpus  *Corpus
	matches [][]int
}

// SubsetChapter is one non-empty sura of a Subset.
type SubsetChapter struct {
	Number    int // 1-based sura number
	Chapter   *Chapter
	Positions []int // 0-based aya positions, ascending
}

// Match is a selected aya with its 1-based number.
type Match struct {
	Number int
	Text   string
}

// Matches returns the selected ayat of the sura in order.
func (sc SubsetChapter) Matches() []Match {
	out := make([]Match, len(sc.Positions))
	for i, p := range sc.Positions {
		out[i] = Match{Number: p + 1, Text: sc.Chapter.Verses[p]}
	}
	return out
}

// Filter evaluates pred over every aya in corpus order (sura-major,
// aya-minor) and collects the positions for which it returned true.
func (c *Corpus) Filter(pred Predicate) Subset {
	s := Subset{corpus: c, matches: make([][]int, len(c.Chapters))}
	for i := range c.Chapters {
		var pos []int
		for j, text := range c.Chapters[i].Verses {
			if pred(i+1, j+1, text) {
				pos = append(pos, j)
			}
		}
		s.matches[i] = pos
	}
	return s
}

// All returns the Subset that selects every aya.
func (c *Corpus) All() Subset {
	return c.Filter(func(int, int, string) bool { return true })
}

// Chapters yields the suras with at least one selected aya, in sura order.
// The sequence may be ranged over any number of times.
func (s Subset) Chapters() iter.Seq[SubsetChapter] {
	return func(yield func(SubsetChapter) bool) {
		for i, pos := range s.matches {
			if len(pos) == 0 {
				continue
			}
			sc := SubsetChapter{
				Number:    i + 1,
				Chapter:   &s.corpus.Chapters[i],
				Positions: pos,
			}
			if !yield(sc) {
				return
			}
		}
	}
}

// Positions returns the 0-based positions selected in sura n, or nil.
func (s Subset) Positions(n int) []int {
	if n < 1 || n > len(s.matches) {
		return nil
	}
	return s.matches[n-1]
}

// Len returns the number of selected ayat.
func (s Subset) Len() int {
	n := 0
	for _, pos := range s.matches {
		n += len(pos)
	}
	return n
}

// Empty reports whether no aya is selected.
func (s Subset) Empty() bool {
	for _, pos := range s.matches {
		if len(pos) > 0 {
			return false
		}
	}
	return true
}
