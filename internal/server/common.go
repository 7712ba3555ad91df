// Package server provides shared middleware and lifecycle helpers for the
// HTTP surfaces of the reader.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
)

// SlowRequestThreshold is the duration above which TimingMiddleware logs
// at warn level.
const SlowRequestThreshold = 100 * time.Millisecond

// AbsPath returns the absolute path of a file, or the original path if it fails.
func AbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // empty allows all (*)
}

// CORSMiddlewareWithConfig adds CORS headers to responses.
// If AllowedOrigins is empty, any origin is accepted with "*". Otherwise the
// request Origin must appear in the list or no CORS headers are written.
func CORSMiddlewareWithConfig(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			allowed := false
			for _, o := range cfg.AllowedOrigins {
				if origin == o {
					allowed = true
					allowedOrigin = origin
					break
				}
			}
			if !allowed {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if allowedOrigin != "*" {
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TimingMiddleware logs request duration. Requests slower than
// SlowRequestThreshold are logged at warn level, the rest at debug.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		if duration > SlowRequestThreshold {
			logging.WarnContext(r.Context(), "slow_request", "method", r.Method, "path", r.URL.Path, "duration_ms", duration.Milliseconds())
		} else {
			logging.DebugContext(r.Context(), "request_timing", "method", r.Method, "path", r.URL.Path, "duration_us", duration.Microseconds())
		}
	})
}

// ETagMiddleware sets a strong ETag derived from tag on successful GET and
// HEAD responses and replies 304 when If-None-Match already names it.
// Error pages and redirects carry no validator. Only wrap handlers whose
// output is a function of tag.
func ETagMiddleware(tag string, next http.Handler) http.Handler {
	if tag == "" {
		return next
	}
	etag := `"` + tag + `"`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		next.ServeHTTP(&etagWriter{ResponseWriter: w, etag: etag}, r)
	})
}

// etagWriter adds the ETag header once the status is known to be 200.
type etagWriter struct {
	http.ResponseWriter
	etag        string
	wroteHeader bool
}

func (w *etagWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if code == http.StatusOK {
			w.Header().Set("ETag", w.etag)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *etagWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *etagWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// Chain applies middleware so that the first element is outermost.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// TLSConfig names the certificate pair used by Serve.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// New returns an http.Server with the timeouts used by every surface.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, tls TLSConfig) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls.Enabled {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("server_shutdown", "addr", srv.Addr)
		return srv.Shutdown(shutdownCtx)
	}
}
