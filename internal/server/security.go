package server

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
)

// CSPConfig holds Content-Security-Policy configuration.
type CSPConfig struct {
	DefaultSrc     []string
	ScriptSrc      []string
	StyleSrc       []string
	ImgSrc         []string
	FontSrc        []string
	ConnectSrc     []string // fetch, XMLHttpRequest and WebSocket
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string

	UpgradeInsecureRequests bool
}

// WebUICSPConfig returns the policy for the HTML reader. Scripts and styles
// are served from /static only; connect-src covers the live search socket.
func WebUICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:     []string{"'self'"},
		ScriptSrc:      []string{"'self'"},
		StyleSrc:       []string{"'self'"},
		ImgSrc:         []string{"'self'", "data:"},
		FontSrc:        []string{"'self'"},
		ConnectSrc:     []string{"'self'", "ws:", "wss:"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'self'"},
		FormAction:     []string{"'self'"},
	}
}

// APICSPConfig returns a strict policy for JSON endpoints.
func APICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:     []string{"'none'"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'none'"},
		FormAction:     []string{"'none'"},
	}
}

// BuildCSPHeader builds a Content-Security-Policy header value from config.
func (cfg CSPConfig) BuildCSPHeader() string {
	var directives []string
	add := func(name string, sources []string) {
		if len(sources) > 0 {
			directives = append(directives, name+" "+strings.Join(sources, " "))
		}
	}

	add("default-src", cfg.DefaultSrc)
	add("script-src", cfg.ScriptSrc)
	add("style-src", cfg.StyleSrc)
	add("img-src", cfg.ImgSrc)
	add("font-src", cfg.FontSrc)
	add("connect-src", cfg.ConnectSrc)
	add("frame-ancestors", cfg.FrameAncestors)
	add("base-uri", cfg.BaseURI)
	add("form-action", cfg.FormAction)
	if cfg.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

// SecurityHeadersWithCSP adds the standard security headers and the
// configured Content-Security-Policy.
func SecurityHeadersWithCSP(cfg CSPConfig, next http.Handler) http.Handler {
	cspHeader := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cspHeader != "" {
			w.Header().Set("Content-Security-Policy", cspHeader)
		}
		next.ServeHTTP(w, r)
	})
}

// MaxQueryLength bounds search queries accepted from any surface, in runes.
const MaxQueryLength = 256

// SanitizeQuery drops control characters and invalid UTF-8 from input and
// otherwise returns it unchanged: surrounding whitespace is part of the
// query. A result longer than MaxQueryLength runes is rejected with a
// *errors.ValidationError rather than truncated.
func SanitizeQuery(input string) (string, error) {
	var b strings.Builder
	n := 0
	for i, r := range input {
		if r == unicode.ReplacementChar {
			if _, size := utf8.DecodeRuneInString(input[i:]); size <= 1 {
				continue
			}
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	if n > MaxQueryLength {
		return "", errors.NewValidation("q", fmt.Sprintf("%d runes", n),
			fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
	}
	return b.String(), nil
}
