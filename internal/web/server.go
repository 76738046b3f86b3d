// Package web provides the HTTP service that extracts item reports from
// uploaded BSP files.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/config"
	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/metrics"
	mw "github.com/JonMunkholm/bspitems/internal/web/middleware"
)

// Server is the HTTP server for the extraction service.
type Server struct {
	service *core.Service
	catalog *catalog.Catalog
	version catalog.GameVersion
	cfg     config.ServerConfig
	limiter *Limiter
	rate    *rateLimiter
	cache   *extractionCache
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cat *catalog.Catalog, version catalog.GameVersion, cfg config.ServerConfig) *Server {
	s := &Server{
		service: service,
		catalog: cat,
		version: version,
		cfg:     cfg,
		limiter: NewLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cache:   newExtractionCache(cfg.CacheSize, cfg.CacheTTL),
		router:  chi.NewRouter(),
	}
	if cfg.RateLimit > 0 {
		s.rate = newRateLimiter(cfg.RateLimit, rateWindow)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(securityHeaders)

	if s.rate != nil {
		s.router.Use(s.rate.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/catalog", s.handleCatalogSummary)
		r.Get("/catalog/{classname}", s.handleCatalogLookup)
	})
}

// Start begins listening for HTTP requests on the configured address.
// It returns nil after a graceful Shutdown, including one that happened
// before Start was called.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running extractions.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rate != nil {
		s.rate.stop()
	}

	err := s.server.Shutdown(ctx)
	if active := s.limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for extractions to complete", "active", active)
		if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
			slog.Warn("extractions did not complete in time", "error", drainErr)
		}
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
