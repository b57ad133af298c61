// Package server exposes search, history and cache statistics over HTTP using
// the same wire contract the proxy source consumes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/tagscout/internal/cache"
	"github.com/ppiankov/tagscout/internal/search"
)

const shutdownTimeout = 10 * time.Second

// Searcher runs hashtag searches.
type Searcher interface {
	Search(ctx context.Context, hashtag string) (search.Result, error)
	SearchRealOnly(ctx context.Context, hashtag string) (search.Result, error)
}

// CacheAdmin reads and clears the post cache.
type CacheAdmin interface {
	History(ctx context.Context) []string
	Stats(ctx context.Context) cache.Stats
	Clear(ctx context.Context)
}

type Server struct {
	search Searcher
	cache  CacheAdmin
	log    *slog.Logger
	router chi.Router
}

// New builds the router. logger may be nil.
func New(s Searcher, c CacheAdmin, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{search: s, cache: c, log: logger, router: chi.NewRouter()}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/instagram/hashtag/{hashtag}", s.handleHashtag)
		r.Get("/instagram/hashtag/", s.handleHashtag)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
		r.Delete("/cache", s.handleClear)
	})
}
