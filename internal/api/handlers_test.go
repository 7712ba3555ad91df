package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
)

const fixtureXML = `<?xml version="1.0" encoding="utf-8" ?>
<quran>
	<sura index="1" name="Al-Fatihah">
		<aya index="1" text="in the name of god"/>
		<aya index="2" text="praise be to god"/>
		<aya index="3" text="the merciful"/>
	</sura>
	<sura index="2" name="Al-Baqarah">
		<aya index="1" text="alif lam mim" bismillah="in the name of god, the merciful"/>
		<aya index="2" text="this is the book"/>
	</sura>
	<sura index="3" name="Al-Imran">
		<aya index="1" text="alif lam mim" bismillah="in the name of god, the merciful"/>
		<aya index="2" text="god, there is no deity"/>
		<aya index="3" text="nothing is hidden from god"/>
	</sura>
</quran>
`

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	c, err := quran.LoadBytes([]byte(fixtureXML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	s := New(c, cfg)
	t.Cleanup(s.Close)
	return s
}

// envelope decodes Data into a caller-provided value.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func call(t *testing.T, h http.Handler, target string, data any) (*http.Response, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("GET %s: invalid JSON %q: %v", target, body, err)
	}
	if data != nil && env.Success {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("GET %s: decode data: %v", target, err)
		}
	}
	return resp, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{Version: "1.2.3"})

	var info HealthInfo
	resp, env := call(t, s.Handler(), "/api/health", &info)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
	if info.Status != "healthy" || info.Version != "1.2.3" {
		t.Errorf("info = %+v", info)
	}
	if info.Suras != 3 || info.Ayat != 8 {
		t.Errorf("suras/ayat = %d/%d, want 3/8", info.Suras, info.Ayat)
	}
	if info.Fingerprint == "" || info.Fingerprint != s.corpus.Fingerprint {
		t.Errorf("fingerprint = %q, want %q", info.Fingerprint, s.corpus.Fingerprint)
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("API responses should carry a CSP header")
	}
}

func TestSuras(t *testing.T) {
	s := newTestServer(t, Config{})

	var suras []SuraSummary
	_, env := call(t, s.Handler(), "/api/suras", &suras)
	want := []SuraSummary{
		{Number: 1, Name: "Al-Fatihah", VerseCount: 3},
		{Number: 2, Name: "Al-Baqarah", VerseCount: 2, Bismillah: "in the name of god, the merciful"},
		{Number: 3, Name: "Al-Imran", VerseCount: 3, Bismillah: "in the name of god, the merciful"},
	}
	if diff := cmp.Diff(want, suras); diff != "" {
		t.Errorf("suras mismatch (-want +got):\n%s", diff)
	}
	if env.Meta == nil || env.Meta.Total != 3 {
		t.Errorf("meta = %+v, want total 3", env.Meta)
	}
}

func TestSura(t *testing.T) {
	s := newTestServer(t, Config{})

	var detail SuraDetail
	resp, _ := call(t, s.Handler(), "/api/suras/2", &detail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	want := SuraDetail{
		SuraSummary: SuraSummary{Number: 2, Name: "Al-Baqarah", VerseCount: 2, Bismillah: "in the name of god, the merciful"},
		Verses: []Verse{
			{Sura: 2, Aya: 1, Name: "Al-Baqarah", Text: "alif lam mim"},
			{Sura: 2, Aya: 2, Name: "Al-Baqarah", Text: "this is the book"},
		},
	}
	if diff := cmp.Diff(want, detail); diff != "" {
		t.Errorf("sura mismatch (-want +got):\n%s", diff)
	}
}

func TestAya(t *testing.T) {
	s := newTestServer(t, Config{})

	var v Verse
	resp, _ := call(t, s.Handler(), "/api/suras/3/ayat/2", &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if diff := cmp.Diff(Verse{Sura: 3, Aya: 2, Name: "Al-Imran", Text: "god, there is no deity"}, v); diff != "" {
		t.Errorf("aya mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/suras/0", http.StatusNotFound, CodeNotFound},
		{"/api/suras/4", http.StatusNotFound, CodeNotFound},
		{"/api/suras/abc", http.StatusBadRequest, CodeInvalidInput},
		{"/api/suras/1/ayat/4", http.StatusNotFound, CodeNotFound},
		{"/api/suras/1/ayat/0", http.StatusNotFound, CodeNotFound},
		{"/api/suras/1/ayat/x", http.StatusBadRequest, CodeInvalidInput},
		{"/api/search?q=god&limit=0", http.StatusBadRequest, CodeInvalidInput},
		{"/api/search?q=god&limit=lots", http.StatusBadRequest, CodeInvalidInput},
		{"/api/search?q=god&limit=10001", http.StatusBadRequest, CodeInvalidInput},
		{"/api/ref?r=", http.StatusBadRequest, CodeInvalidInput},
		{"/api/ref?r=two", http.StatusBadRequest, CodeInvalidInput},
		{"/api/ref?r=2:3-1", http.StatusBadRequest, CodeInvalidInput},
		{"/api/ref?r=9", http.StatusNotFound, CodeNotFound},
		{"/api/ref?r=1:2-9", http.StatusNotFound, CodeNotFound},
		{"/api/nothing", http.StatusNotFound, CodeNotFound},
	}

	s := newTestServer(t, Config{})
	h := s.Handler()
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, env := call(t, h, tt.target, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("envelope = %+v, want error code %s", env, tt.code)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, Config{SearchLimit: 3})
	h := s.Handler()

	t.Run("default limit truncates in corpus order", func(t *testing.T) {
		var res SearchResponse
		call(t, h, "/api/search?q=god", &res)
		if res.Total != 4 || res.Limit != 3 || !res.Truncated {
			t.Errorf("total/limit/truncated = %d/%d/%v, want 4/3/true", res.Total, res.Limit, res.Truncated)
		}
		var got [][2]int
		for _, v := range res.Results {
			got = append(got, [2]int{v.Sura, v.Aya})
		}
		if diff := cmp.Diff([][2]int{{1, 1}, {1, 2}, {3, 2}}, got); diff != "" {
			t.Errorf("result order (-want +got):\n%s", diff)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		var res SearchResponse
		call(t, h, "/api/search?q=god&limit=10", &res)
		if res.Total != 4 || len(res.Results) != 4 || res.Truncated {
			t.Errorf("got total %d, %d results, truncated %v", res.Total, len(res.Results), res.Truncated)
		}
	})

	t.Run("no match", func(t *testing.T) {
		var res SearchResponse
		call(t, h, "/api/search?q="+url.QueryEscape("absent words"), &res)
		if res.Total != 0 || res.Results == nil || len(res.Results) != 0 {
			t.Errorf("got %+v, want empty non-nil results", res)
		}
	})

	t.Run("control characters are dropped", func(t *testing.T) {
		var res SearchResponse
		call(t, h, "/api/search?q="+url.QueryEscape("alif\x00 lam"), &res)
		if res.Query != "alif lam" || res.Total != 2 {
			t.Errorf("query %q total %d, want %q 2", res.Query, res.Total, "alif lam")
		}
	})
}

func TestSearchMatchesCorpusSearch(t *testing.T) {
	s := newTestServer(t, Config{SearchLimit: 100})
	h := s.Handler()

	for _, raw := range []string{"god", "god ", " god", "god,", "the merciful", " ", "", "alif lam mim ", "nothing"} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			var res SearchResponse
			resp, _ := call(t, h, "/api/search?q="+url.QueryEscape(raw), &res)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if want := s.corpus.Search(raw).Len(); res.Total != want {
				t.Errorf("total = %d, corpus search = %d", res.Total, want)
			}
			if res.Query != raw {
				t.Errorf("query echoed as %q, want %q", res.Query, raw)
			}
		})
	}
}

func TestSearchRejectsLongQuery(t *testing.T) {
	s := newTestServer(t, Config{})
	long := strings.Repeat("a", server.MaxQueryLength+1)

	resp, env := call(t, s.Handler(), "/api/search?q="+long, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != CodeInvalidInput {
		t.Errorf("error = %+v, want %s", env.Error, CodeInvalidInput)
	}
}

func TestRef(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	tests := []struct {
		ref  string
		want string
		ayat [][2]int
	}{
		{"2", "2", [][2]int{{2, 1}, {2, 2}}},
		{"3:2", "3:2", [][2]int{{3, 2}}},
		{"1.2-3", "1:2-3", [][2]int{{1, 2}, {1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			var res RefResponse
			resp, env := call(t, h, "/api/ref?r="+url.QueryEscape(tt.ref), &res)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if res.Ref != tt.want {
				t.Errorf("ref = %q, want %q", res.Ref, tt.want)
			}
			var got [][2]int
			for _, v := range res.Verses {
				got = append(got, [2]int{v.Sura, v.Aya})
			}
			if diff := cmp.Diff(tt.ayat, got); diff != "" {
				t.Errorf("verses (-want +got):\n%s", diff)
			}
			if env.Meta.Total != len(tt.ayat) {
				t.Errorf("meta total = %d, want %d", env.Meta.Total, len(tt.ayat))
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("permissive", func(t *testing.T) {
		s := newTestServer(t, Config{})
		resp, _ := call(t, s.Handler(), "/api/health", nil)
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
	})

	t.Run("restricted", func(t *testing.T) {
		s := newTestServer(t, Config{AllowedOrigins: []string{"https://reader.example"}})
		h := s.Handler()

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://reader.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://reader.example" {
			t.Errorf("allowed origin header = %q", got)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://elsewhere.example")
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("disallowed origin got header %q", got)
		}
	})
}

func TestRateLimitedHandler(t *testing.T) {
	s := newTestServer(t, Config{RateLimitRequests: 1, RateLimitBurst: 2})
	h := s.Handler()

	for i := range 2 {
		resp, _ := call(t, h, "/api/health", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}
	resp, env := call(t, h, "/api/health", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != CodeRateLimitExceeded {
		t.Errorf("error = %+v", env.Error)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
