package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

// HealthInfo is returned by /api/health.
type HealthInfo struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Suras       int    `json:"suras"`
	Ayat        int    `json:"ayat"`
	Fingerprint string `json:"fingerprint"`
	Sessions    int    `json:"sessions"`
}

// SuraSummary describes a sura without its text.
type SuraSummary struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	VerseCount int    `json:"verse_count"`
	Bismillah  string `json:"bismillah,omitempty"`
}

// Verse is one aya.
type Verse struct {
	Sura int    `json:"sura"`
	Aya  int    `json:"aya"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// SuraDetail is a sura with all of its ayat.
type SuraDetail struct {
	SuraSummary
	Verses []Verse `json:"verses"`
}

// SearchResponse is the result of a search over HTTP or the websocket.
// Total counts every match; Results holds at most Limit of them in corpus
// order.
type SearchResponse struct {
	Query     string  `json:"query"`
	Total     int     `json:"total"`
	Limit     int     `json:"limit"`
	Truncated bool    `json:"truncated"`
	Results   []Verse `json:"results"`
	Error     string  `json:"error,omitempty"`
}

// RefResponse is the result of a reference lookup.
type RefResponse struct {
	Ref    string  `json:"ref"`
	Verses []Verse `json:"verses"`
}

func summarize(n int, ch *quran.Chapter) SuraSummary {
	return SuraSummary{
		Number:     n,
		Name:       ch.Name,
		VerseCount: len(ch.Verses),
		Bismillah:  ch.Bismillah,
	}
}

func parseNumber(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidation(field, raw, "must be an integer")
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, HealthInfo{
		Status:      "healthy",
		Version:     s.cfg.Version,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Suras:       s.corpus.Len(),
		Ayat:        s.corpus.VerseCount(),
		Fingerprint: s.corpus.Fingerprint,
		Sessions:    s.hub.Count(),
	})
}

func (s *Server) handleSuras(w http.ResponseWriter, r *http.Request) {
	suras := make([]SuraSummary, s.corpus.Len())
	for i := range s.corpus.Chapters {
		suras[i] = summarize(i+1, &s.corpus.Chapters[i])
	}
	respondList(w, suras, len(suras))
}

func (s *Server) handleSura(w http.ResponseWriter, r *http.Request) {
	n, err := parseNumber("sura", r.PathValue("sura"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	ch, ok := s.corpus.Chapter(n)
	if !ok {
		respondErr(w, r, errors.NewNotFound("sura", strconv.Itoa(n)))
		return
	}

	detail := SuraDetail{SuraSummary: summarize(n, ch), Verses: make([]Verse, len(ch.Verses))}
	for i, text := range ch.Verses {
		detail.Verses[i] = Verse{Sura: n, Aya: i + 1, Name: ch.Name, Text: text}
	}
	respond(w, http.StatusOK, detail)
}

func (s *Server) handleAya(w http.ResponseWriter, r *http.Request) {
	sura, err := parseNumber("sura", r.PathValue("sura"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	aya, err := parseNumber("aya", r.PathValue("aya"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	text, ok := s.corpus.Verse(sura, aya)
	if !ok {
		respondErr(w, r, errors.NewNotFound("aya", fmt.Sprintf("%d:%d", sura, aya)))
		return
	}
	ch, _ := s.corpus.Chapter(sura)
	respond(w, http.StatusOK, Verse{Sura: sura, Aya: aya, Name: ch.Name, Text: text})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.SearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSearchLimit {
			respondErr(w, r, errors.NewValidation("limit", raw, fmt.Sprintf("must be between 1 and %d", MaxSearchLimit)))
			return
		}
		limit = n
	}
	resp, err := s.search(r.Context(), "api", r.URL.Query().Get("q"), limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

// search runs a query for any surface. Control characters are dropped and
// over-long queries rejected so HTTP and websocket callers see identical
// results; whitespace is significant and kept.
func (s *Server) search(ctx context.Context, surface, raw string, limit int) (SearchResponse, error) {
	query, err := server.SanitizeQuery(raw)
	if err != nil {
		return SearchResponse{}, err
	}

	start := time.Now()
	subset := s.corpus.Search(query)
	resp := SearchResponse{
		Query:   query,
		Total:   subset.Len(),
		Limit:   limit,
		Results: []Verse{},
	}
	for sc := range subset.Chapters() {
		for _, m := range sc.Matches() {
			if len(resp.Results) == limit {
				resp.Truncated = true
				break
			}
			resp.Results = append(resp.Results, Verse{Sura: sc.Number, Aya: m.Number, Name: sc.Chapter.Name, Text: m.Text})
		}
		if resp.Truncated {
			break
		}
	}
	logging.SearchPerformed(ctx, surface, query, resp.Total, time.Since(start))
	return resp, nil
}

func (s *Server) handleRef(w http.ResponseWriter, r *http.Request) {
	ref, err := quran.ParseRef(r.URL.Query().Get("r"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	subset, ok := s.corpus.Lookup(ref)
	if !ok {
		respondErr(w, r, errors.NewNotFound("reference", ref.String()))
		return
	}

	resp := RefResponse{Ref: ref.String()}
	for sc := range subset.Chapters() {
		for _, m := range sc.Matches() {
			resp.Verses = append(resp.Verses, Verse{Sura: sc.Number, Aya: m.Number, Name: sc.Chapter.Name, Text: m.Text})
		}
	}
	respondList(w, resp, len(resp.Verses))
}
