package quran

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
)

// Ref is a textual reference: a whole sura ("114"), one aya ("2:255") or
// an aya range ("2:1-5"). From and To are zero for a whole sura.
type Ref struct {
	Sura int
	From int
	To   int
}

// String renders the reference in the form accepted by ParseRef.
func (r Ref) String() string {
	switch {
	case r.From == 0:
		return fmt.Sprintf("%d", r.Sura)
	case r.To == r.From:
		return fmt.Sprintf("%d:%d", r.Sura, r.From)
	default:
		return fmt.Sprintf("%d:%d-%d", r.Sura, r.From, r.To)
	}
}

// WholeChapter reports whether r names a sura without an aya range.
func (r Ref) WholeChapter() bool {
	return r.From == 0
}

type refAST struct {
	Sura  int       `parser:"@Int"`
	Range *rangeAST `parser:"( Sep @@ )?"`
}

type rangeAST struct {
	From int  `parser:"@Int"`
	To   *int `parser:"( Dash @Int )?"`
}

var (
	refLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Int", Pattern: `\d+`},
		{Name: "Sep", Pattern: `[:.]`},
		{Name: "Dash", Pattern: `-`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	refParser = participle.MustBuild[refAST](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
)

// ParseRef parses "S", "S:A" or "S:A-B" (a '.' may replace the ':').
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, errors.NewParse("reference", "", "empty reference")
	}
	ast, err := refParser.ParseString("", s)
	if err != nil {
		return Ref{}, &errors.ParseError{Format: "reference", Message: err.Error(), Err: err}
	}

	ref := Ref{Sura: ast.Sura}
	if ast.Range != nil {
		ref.From = ast.Range.From
		ref.To = ast.Range.From
		if ast.Range.To != nil {
			ref.To = *ast.Range.To
		}
	}

	switch {
	case ref.Sura < 1:
		return Ref{}, errors.NewValidation("sura", s, "must be 1 or greater")
	case ast.Range != nil && ref.From < 1:
		return Ref{}, errors.NewValidation("aya", s, "must be 1 or greater")
	case ref.To < ref.From:
		return Ref{}, errors.NewValidation("aya", s, "range end precedes range start")
	}
	return ref, nil
}

// Lookup returns the ayat named by ref. The second result is false when the
// sura or any aya of the range lies outside the corpus.
func (c *Corpus) Lookup(ref Ref) (Subset, bool) {
	ch, ok := c.Chapter(ref.Sura)
	if !ok {
		return Subset{}, false
	}
	from, to := ref.From, ref.To
	if ref.WholeChapter() {
		from, to = 1, len(ch.Verses)
	}
	if from < 1 || to > len(ch.Verses) || to < from {
		return Subset{}, false
	}
	return c.Filter(func(chapter, verse int, _ string) bool {
		return chapter == ref.Sura && verse >= from && verse <= to
	}), true
}
