// Package api serves the JSON API and the live search websocket over a
// loaded corpus.
package api

import (
	"net/http"
	"time"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

// Prefix is the path under which Handler expects to be mounted.
const Prefix = "/api/"

// MaxSearchLimit caps the limit query parameter.
const MaxSearchLimit = 10000

// Config holds API configuration.
type Config struct {
	Version           string
	RateLimitRequests int      // requests per minute, 0 disables
	RateLimitBurst    int
	AllowedOrigins    []string // CORS and websocket origins, empty allows all
	SearchLimit       int      // default result cap for search
	WebSocket         WebSocketConfig
}

// Server is the API over one corpus.
type Server struct {
	corpus  *quran.Corpus
	cfg     Config
	started time.Time
	hub     *Hub
	limiter *RateLimiter
}

// New creates the API server and starts its session hub. Call Close when
// the server is no longer used.
func New(c *quran.Corpus, cfg Config) *Server {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 200
	}
	defaults := DefaultWebSocketConfig()
	if cfg.WebSocket.MaxMessageRate <= 0 {
		cfg.WebSocket.MaxMessageRate = defaults.MaxMessageRate
	}
	if cfg.WebSocket.MaxMessageSize <= 0 {
		cfg.WebSocket.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.WebSocket.AllowedOrigins == nil {
		cfg.WebSocket.AllowedOrigins = cfg.AllowedOrigins
	}

	s := &Server{
		corpus:  c,
		cfg:     cfg,
		started: time.Now(),
		hub:     NewHub(),
	}
	go s.hub.Run()

	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
		logging.Info("rate limiting enabled",
			"requests_per_minute", cfg.RateLimitRequests,
			"burst_size", s.limiter.config.BurstSize)
	}
	return s
}

// Close stops background goroutines and disconnects live search sessions.
func (s *Server) Close() {
	s.hub.Stop()
	if s.limiter != nil {
		s.limiter.Close()
	}
}

// Sessions returns the number of open live search sessions.
func (s *Server) Sessions() int {
	return s.hub.Count()
}

// Handler returns the API routes wrapped in the API middleware chain:
// CORS, rate limiting, then security headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/suras", s.handleSuras)
	mux.HandleFunc("GET /api/suras/{sura}", s.handleSura)
	mux.HandleFunc("GET /api/suras/{sura}/ayat/{aya}", s.handleAya)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/ref", s.handleRef)
	mux.HandleFunc("GET /api/ws/search", s.handleLiveSearch)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "no such endpoint: "+r.URL.Path)
	})

	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), mux)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}

	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*)")
	}
	return handler
}
