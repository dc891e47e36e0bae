package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/jobpilot/internal/app"
)

const (
	readTimeout       = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
	// AI tool endpoints wait on the model, so writes get a longer budget.
	writeTimeout = 120 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server owns the HTTP listener for the API and websocket stream
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server
}

// New builds the routed, middleware-wrapped server for application
func New(application *app.App) *Server {
	s := &Server{app: application}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:              net.JoinHostPort(application.Config.Server.Host, fmt.Sprint(application.Config.Server.Port)),
		Handler:           s.withMiddleware(s.router),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens and serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.app.Logger.Info().
		Str("address", listener.Addr().String()).
		Str("url", fmt.Sprintf("http://%s/api/health", listener.Addr())).
		Msg("HTTP server listening")

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests up to ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
