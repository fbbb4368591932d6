// Package api exposes the control surface over HTTP: scene switching,
// source geometry, streaming outputs and session status, plus the
// Prometheus scrape endpoint.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"scenecast/internal/pipeline"
	"scenecast/internal/scenes"
	"scenecast/internal/session"
)

// Options configures the API server.
type Options struct {
	Session        *session.Session
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Server is the huma v2 API server for one session.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	session    *session.Session
	logger     *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	cfg := huma.DefaultConfig("Scenecast API", "1.0.0")
	cfg.Info.Description = "Live-video compositing and streaming control"

	s := &Server{
		api:     humago.New(mux, cfg),
		mux:     mux,
		session: opts.Session,
		logger:  opts.Logger,
	}

	s.registerSceneRoutes()
	s.registerOutputRoutes()
	s.registerStatusRoutes()

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}
	return s
}

// Start begins serving on the given address. Blocks until the server
// stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// mapError translates domain errors to HTTP status errors.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, scenes.ErrIndexOutOfRange):
		return huma.Error404NotFound("scene not found", err)
	case errors.Is(err, pipeline.ErrNotFound):
		return huma.Error404NotFound("node or pad not found", err)
	case errors.Is(err, pipeline.ErrElementUnavailable):
		return huma.Error422UnprocessableEntity("required element unavailable", err)
	case errors.Is(err, pipeline.ErrLinkFailure):
		return huma.Error502BadGateway("pipeline rejected link", err)
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
