package main

import (
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
	"github.com/FocuswithJustin/JuniperQuran/internal/tui"
)

// ListCmd lists every sura with its aya count.
type ListCmd struct{}

func (c *ListCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	for i := range corpus.Chapters {
		ch := &corpus.Chapters[i]
		fmt.Fprintf(a.out, "%3d  %-28s %3d ayat\n", i+1, ch.Name, len(ch.Verses))
	}
	return nil
}

// SuraCmd prints one sura.
type SuraCmd struct {
	Sura int `arg:"" help:"Sura number (1-based)"`
}

func (c *SuraCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	ch, ok := corpus.Chapter(c.Sura)
	if !ok {
		return errors.NewNotFound("sura", strconv.Itoa(c.Sura))
	}

	fmt.Fprintf(a.out, "%d. %s\n", c.Sura, ch.Name)
	if ch.HasBismillah() {
		fmt.Fprintf(a.out, "%s\n", ch.Bismillah)
	}
	fmt.Fprintln(a.out)
	for i, text := range ch.Verses {
		fmt.Fprintf(a.out, "%d:%d  %s\n", c.Sura, i+1, text)
	}
	return nil
}

// AyaCmd prints one aya.
type AyaCmd struct {
	Sura int `arg:"" help:"Sura number (1-based)"`
	Aya  int `arg:"" help:"Aya number within the sura (1-based)"`
}

func (c *AyaCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	text, ok := corpus.Verse(c.Sura, c.Aya)
	if !ok {
		return errors.NewNotFound("aya", fmt.Sprintf("%d:%d", c.Sura, c.Aya))
	}
	fmt.Fprintf(a.out, "%d:%d  %s\n", c.Sura, c.Aya, text)
	return nil
}

// ShowCmd prints the ayat named by a reference.
type ShowCmd struct {
	Ref string `arg:"" help:"Reference: S, S:A or S:A-B"`
}

func (c *ShowCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	ref, err := quran.ParseRef(c.Ref)
	if err != nil {
		return err
	}
	subset, ok := corpus.Lookup(ref)
	if !ok {
		return errors.NewNotFound("reference", ref.String())
	}
	printSubset(a, subset, 0)
	return nil
}

// SearchCmd prints the ayat whose normalized text contains the query.
type SearchCmd struct {
	Query string `arg:"" optional:"" help:"Text to search for; empty lists every aya"`
	Limit int    `short:"n" help:"Maximum ayat to print (default from config)"`
}

func (c *SearchCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = a.cfg.Search.DefaultLimit
	}

	query, err := server.SanitizeQuery(c.Query)
	if err != nil {
		return err
	}
	subset := corpus.Search(query)
	printed := printSubset(a, subset, limit)

	total := subset.Len()
	switch {
	case total == 0:
		fmt.Fprintln(a.out, "no matches")
	case printed < total:
		fmt.Fprintf(a.out, "\n%d matches, showing the first %d\n", total, printed)
	default:
		fmt.Fprintf(a.out, "\n%d matches\n", total)
	}
	return nil
}

// printSubset writes at most limit ayat (all when limit is zero) in corpus
// order and returns how many were written.
func printSubset(a *app, s quran.Subset, limit int) int {
	n := 0
	for sc := range s.Chapters() {
		for _, m := range sc.Matches() {
			if limit > 0 && n == limit {
				return n
			}
			fmt.Fprintf(a.out, "%d:%d  %s\n", sc.Number, m.Number, m.Text)
			n++
		}
	}
	return n
}

// TUICmd starts the terminal reader.
type TUICmd struct {
	Limit int `short:"n" help:"Maximum ayat listed per query (default from config)"`
}

func (c *TUICmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = a.cfg.Search.DefaultLimit
	}
	return tui.Run(corpus, limit)
}
