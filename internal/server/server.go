// Package server provides the HTTP API for Granthalaya.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/artifact"
	"github.com/shastralib/granthalaya/internal/catalog"
	"github.com/shastralib/granthalaya/internal/config"
	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/library"
	"github.com/shastralib/granthalaya/internal/search"
	"github.com/shastralib/granthalaya/internal/storage"
)

// Server is the HTTP server for the Granthalaya API.
type Server struct {
	library  *library.Library
	catalog  *catalog.Catalog
	index    *search.VerseIndex
	pipeline *ingest.Pipeline
	journal  storage.Journal
	store    artifact.Store
	tokens   TokenService
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	lib *library.Library,
	cat *catalog.Catalog,
	idx *search.VerseIndex,
	pipeline *ingest.Pipeline,
	journal storage.Journal,
	store artifact.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		library:  lib,
		catalog:  cat,
		index:    idx,
		pipeline: pipeline,
		journal:  journal,
		store:    store,
		tokens:   NewTokenService(cfg.Admin),
		config:   cfg,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", s.handleListBooks)
		r.Get("/books/{id}", s.handleGetBook)
		r.Get("/chapters", s.handleListChapters)
		r.Get("/chapters/{chapter}", s.handleGetChapter)
		r.Get("/chapters/{chapter}/verses/{verse}", s.handleGetVerse)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)

		r.Post("/admin/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/admin/scriptures", s.handleIngestScripture)
			r.Get("/admin/ingestions", s.handleListIngestions)
		})
	})

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
