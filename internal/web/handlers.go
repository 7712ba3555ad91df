package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

// PageData is common to every page.
type PageData struct {
	Title       string
	Fingerprint string
}

// ChapterLink is one entry of the home listing.
type ChapterLink struct {
	Number     int
	Name       string
	VerseCount int
}

// VerseLink is an aya with the numbers needed to link to it.
type VerseLink struct {
	Sura int
	Aya  int
	Text string
}

// HomeData is the data for the sura index.
type HomeData struct {
	PageData
	Chapters []ChapterLink
}

// SuraViewData is the data for a whole sura.
type SuraViewData struct {
	PageData
	Number    int
	Name      string
	Bismillah string
	Verses    []VerseLink
	PrevURL   string
	NextURL   string
}

// AyaViewData is the data for a single aya.
type AyaViewData struct {
	PageData
	Sura        int
	Name        string
	Aya         int
	Text        string
	PrevAyaURL  string
	NextAyaURL  string
	SuraURL     string
	PrevSuraURL string
	NextSuraURL string
}

// SearchGroup is one sura of a search result listing.
type SearchGroup struct {
	Number int
	Name   string
	Verses []VerseLink
}

// SearchData is the data for the search page.
type SearchData struct {
	PageData
	Query         string
	Total         int
	Groups        []SearchGroup
	Error         string
	LiveSearchURL string
}

// NotFoundData is the data for the 404 page.
type NotFoundData struct {
	PageData
	NotFoundMessage string
}

func suraURL(n int) string {
	return fmt.Sprintf("/sura/%d", n)
}

func ayaURL(sura, aya int) string {
	return fmt.Sprintf("/aya/%d/%d", sura, aya)
}

func searchURL(query string) string {
	return "/search/" + url.PathEscape(query)
}

func (s *Server) page(title string) PageData {
	return PageData{Title: title, Fingerprint: s.corpus.Fingerprint}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	chapters := make([]ChapterLink, s.corpus.Len())
	for i, ch := range s.corpus.Chapters {
		chapters[i] = ChapterLink{Number: i + 1, Name: ch.Name, VerseCount: len(ch.Verses)}
	}
	s.render(w, r, http.StatusOK, "home.html", HomeData{
		PageData: s.page("القرآن الكريم"),
		Chapters: chapters,
	})
}

func (s *Server) handleSura(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("sura"))
	if err != nil {
		s.notFound(w, r, fmt.Sprintf("Not found: sura %q", r.PathValue("sura")))
		return
	}
	ch, ok := s.corpus.Chapter(n)
	if !ok {
		s.notFound(w, r, fmt.Sprintf("Not found: sura %d", n))
		return
	}

	verses := make([]VerseLink, len(ch.Verses))
	for i, text := range ch.Verses {
		verses[i] = VerseLink{Sura: n, Aya: i + 1, Text: text}
	}

	data := SuraViewData{
		PageData:  s.page(ch.Name),
		Number:    n,
		Name:      ch.Name,
		Bismillah: ch.Bismillah,
		Verses:    verses,
	}
	if n > 1 {
		data.PrevURL = suraURL(n - 1)
	}
	if n < s.corpus.Len() {
		data.NextURL = suraURL(n + 1)
	}
	s.render(w, r, http.StatusOK, "sura.html", data)
}

func (s *Server) handleAya(w http.ResponseWriter, r *http.Request) {
	sura, err1 := strconv.Atoi(r.PathValue("sura"))
	aya, err2 := strconv.Atoi(r.PathValue("aya"))
	if err1 != nil || err2 != nil {
		s.notFound(w, r, fmt.Sprintf("Not found: %q %q", r.PathValue("sura"), r.PathValue("aya")))
		return
	}
	text, ok := s.corpus.Verse(sura, aya)
	if !ok {
		s.notFound(w, r, fmt.Sprintf("Not found: sura %d aya %d", sura, aya))
		return
	}
	ch, _ := s.corpus.Chapter(sura)

	data := AyaViewData{
		PageData: s.page(fmt.Sprintf("%s %d", ch.Name, aya)),
		Sura:     sura,
		Name:     ch.Name,
		Aya:      aya,
		Text:     text,
		SuraURL:  suraURL(sura),
	}
	if aya > 1 {
		data.PrevAyaURL = ayaURL(sura, aya-1)
	}
	if aya < len(ch.Verses) {
		data.NextAyaURL = ayaURL(sura, aya+1)
	}
	// Neighbouring suras keep the aya number; the link is omitted when that
	// sura is too short.
	if _, ok := s.corpus.Verse(sura-1, aya); ok {
		data.PrevSuraURL = ayaURL(sura-1, aya)
	}
	if _, ok := s.corpus.Verse(sura+1, aya); ok {
		data.NextSuraURL = ayaURL(sura+1, aya)
	}
	s.render(w, r, http.StatusOK, "aya.html", data)
}

// handleSearchForm turns the form submission /search?q=... into the
// canonical /search/{query} URL. The query is passed through unchanged.
func (s *Server) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, searchURL(r.URL.Query().Get("q")), http.StatusSeeOther)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := server.SanitizeQuery(r.PathValue("query"))
	if err != nil {
		s.render(w, r, http.StatusBadRequest, "search.html", SearchData{
			PageData:      s.page("بحث"),
			Error:         err.Error(),
			LiveSearchURL: s.opts.LiveSearchURL,
		})
		return
	}

	start := time.Now()
	subset := s.corpus.Search(query)
	groups := groupSubset(subset)
	logging.SearchPerformed(r.Context(), "web", query, subset.Len(), time.Since(start))

	title := "بحث"
	if query != "" {
		title = query + " - " + title
	}
	s.render(w, r, http.StatusOK, "search.html", SearchData{
		PageData:      s.page(title),
		Query:         query,
		Total:         subset.Len(),
		Groups:        groups,
		LiveSearchURL: s.opts.LiveSearchURL,
	})
}

func groupSubset(subset quran.Subset) []SearchGroup {
	var groups []SearchGroup
	for sc := range subset.Chapters() {
		g := SearchGroup{Number: sc.Number, Name: sc.Chapter.Name}
		for _, m := range sc.Matches() {
			g.Verses = append(g.Verses, VerseLink{Sura: sc.Number, Aya: m.Number, Text: m.Text})
		}
		groups = append(groups, g)
	}
	return groups
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.notFound(w, r, "Not found: "+r.URL.Path)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	logging.DebugContext(r.Context(), "not_found", "path", r.URL.Path)
	s.render(w, r, http.StatusNotFound, "notfound.html", NotFoundData{
		PageData:        s.page("Not found"),
		NotFoundMessage: msg,
	})
}
