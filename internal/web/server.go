// Package web serves the HTML reader: the sura index, sura and aya views,
// and the search page.
package web

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// DefaultLiveSearchURL is the websocket endpoint search.js connects to.
const DefaultLiveSearchURL = "/api/ws/search"

// Options configures a Server.
type Options struct {
	// LiveSearchURL is advertised to the search page. Empty disables live
	// search; the form still works through plain GET requests.
	LiveSearchURL string

	// Version is the build version. It is folded into page ETags together
	// with the dataset fingerprint and the template sources.
	Version string
}

// Server renders the reader over a single corpus. It holds no mutable
// state and is safe for concurrent use.
type Server struct {
	corpus    *quran.Corpus
	templates *template.Template
	static    map[string]staticFile
	pageTag   string
	opts      Options
}

type staticFile struct {
	content     []byte
	etag        string
	contentType string
}

var staticTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
}

var templateFuncs = template.FuncMap{
	"add":       func(a, b int) int { return a + b },
	"suraURL":   suraURL,
	"ayaURL":    ayaURL,
	"searchURL": searchURL,
}

// New parses the embedded templates and indexes the static assets.
func New(c *quran.Corpus, opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		corpus:    c,
		templates: tmpl,
		static:    make(map[string]staticFile),
		opts:      opts,
	}
	if err := s.loadStatic(); err != nil {
		return nil, err
	}
	if s.pageTag, err = pageTag(c.Fingerprint, opts.Version); err != nil {
		return nil, err
	}
	return s, nil
}

// pageTag hashes everything a rendered page depends on: the dataset, the
// build version and the templates.
func pageTag(fingerprint, version string) (string, error) {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00", fingerprint, version)
	err := fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := templatesFS.ReadFile(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00", p, len(content))
		h.Write(content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash templates: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)[:16]), nil
}

// loadStatic reads every embedded asset once. ETags are content hashes so
// they survive restarts.
func (s *Server) loadStatic() error {
	return fs.WalkDir(staticFS, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := staticFS.ReadFile(p)
		if err != nil {
			return err
		}
		ct, ok := staticTypes[path.Ext(p)]
		if !ok {
			ct = "application/octet-stream"
		}
		sum := blake3.Sum256(content)
		s.static[path.Base(p)] = staticFile{
			content:     content,
			etag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
			contentType: ct,
		}
		return nil
	})
}

// Handler returns the reader's routes.
func (s *Server) Handler() http.Handler {
	pages := http.NewServeMux()
	pages.HandleFunc("GET /{$}", s.handleHome)
	pages.HandleFunc("GET /sura/{sura}", s.handleSura)
	pages.HandleFunc("GET /aya/{sura}/{aya}", s.handleAya)
	pages.HandleFunc("GET /search", s.handleSearchForm)
	pages.HandleFunc("GET /search/{query...}", s.handleSearch)
	pages.HandleFunc("/", s.handleNotFound)

	// Pages are a pure function of pageTag's inputs; static assets carry
	// their own content hashes.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /static/{file}", s.handleStatic)
	mux.Handle("/", server.ETagMiddleware(s.pageTag, pages))
	return mux
}

// render executes name into a buffer so a template failure can still be
// reported as a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.ErrorContext(r.Context(), "template_error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	f, ok := s.static[r.PathValue("file")]
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	if match := r.Header.Get("If-None-Match"); match == f.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("ETag", f.etag)
	w.Write(f.content)
}
