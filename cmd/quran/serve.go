package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/FocuswithJustin/JuniperQuran/core/quran"
	"github.com/FocuswithJustin/JuniperQuran/internal/api"
	"github.com/FocuswithJustin/JuniperQuran/internal/config"
	"github.com/FocuswithJustin/JuniperQuran/internal/logging"
	"github.com/FocuswithJustin/JuniperQuran/internal/server"
	"github.com/FocuswithJustin/JuniperQuran/internal/web"
)

// ServeCmd starts the web reader with the JSON API mounted under /api/.
type ServeCmd struct {
	Port int `short:"p" help:"Listen port (default from config)"`
}

func (c *ServeCmd) Run(a *app) error {
	corpus, err := a.loadCorpus()
	if err != nil {
		return err
	}
	port := a.cfg.Port
	if c.Port != 0 {
		port = c.Port
	}

	handler, closeAPI, err := newHandler(corpus, a.cfg)
	if err != nil {
		return err
	}
	defer closeAPI()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	protocol := "http"
	if a.cfg.TLS.Enabled {
		protocol = "https"
	}
	logging.ServerStartup("reader", protocol, port,
		"fingerprint", corpus.Fingerprint,
		"rate_limit_requests", a.cfg.API.RateLimitRequests)
	fmt.Fprintf(a.out, "Serving %d suras on %s://localhost:%d/\n", corpus.Len(), protocol, port)

	srv := server.New(fmt.Sprintf(":%d", port), handler)
	return server.Serve(ctx, srv, server.TLSConfig{
		Enabled:  a.cfg.TLS.Enabled,
		CertFile: a.cfg.TLS.CertFile,
		KeyFile:  a.cfg.TLS.KeyFile,
	})
}

// newHandler assembles the web reader and API behind the shared middleware.
// The returned func stops the API's background goroutines.
func newHandler(c *quran.Corpus, cfg *config.Config) (http.Handler, func(), error) {
	pages, err := web.New(c, web.Options{LiveSearchURL: web.DefaultLiveSearchURL, Version: version})
	if err != nil {
		return nil, nil, err
	}
	apiSrv := api.New(c, api.Config{
		Version:           version,
		RateLimitRequests: cfg.API.RateLimitRequests,
		RateLimitBurst:    cfg.API.RateLimitBurst,
		AllowedOrigins:    cfg.API.AllowedOrigins,
		SearchLimit:       cfg.Search.DefaultLimit,
	})

	mux := http.NewServeMux()
	mux.Handle(api.Prefix, apiSrv.Handler())
	mux.Handle("/", pages.Handler())

	handler := server.Chain(mux,
		logging.CombinedMiddleware,
		server.TimingMiddleware,
		func(next http.Handler) http.Handler {
			return server.SecurityHeadersWithCSP(server.WebUICSPConfig(), next)
		},
	)
	return handler, apiSrv.Close, nil
}
