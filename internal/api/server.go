// Package api serves the public story search and read endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"admission-stories/internal/common/logger"
	"admission-stories/internal/models"
	"admission-stories/internal/stories"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Searcher interface {
	Search(ctx context.Context, profile models.ProfileQuery, limit int, surface string) (*stories.SearchResult, error)
}

// StoryReader exposes published content only.
type StoryReader interface {
	GetPublishedStory(ctx context.Context, id int64) (*models.Story, error)
	ListThemes(ctx context.Context) ([]models.Theme, error)
}

type KeywordIndex interface {
	Keyword(ctx context.Context, q string, limit int) ([]models.Story, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Search  Searcher
	Stories StoryReader
	// Index is nil when keyword search is not configured.
	Index  KeywordIndex
	Checks map[string]Pinger
	Logger logger.Logger
}

// Server wraps the chi router and the underlying http.Server.
type Server struct {
	router chi.Router
	deps   Dependencies
	log    logger.Logger
	srv    *http.Server
}

func NewServer(deps Dependencies, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	s := &Server{deps: deps, log: deps.Logger.WithFields(map[string]interface{}{"component": "api"})}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))
		api.Get("/stories/search", s.searchStories)
		api.Get("/stories", s.keywordSearch)
		api.Get("/stories/{id}", s.getStory)
		api.Get("/themes", s.listThemes)
	})

	s.router = r
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string, readTimeout, writeTimeout time.Duration) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.log.Info("HTTP server listening", map[string]interface{}{"addr": addr})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Warn("request failed", fields)
				return
			}
			log.Debug("request served", fields)
		})
	}
}
