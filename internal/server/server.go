package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mcp-gateway/internal/auth"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/dispatch"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/session"
)

// Server is the HTTP surface of the gateway: the streamable transport under
// /mcp, the legacy SSE transport under /sse + /messages, and health
// endpoints. It owns the two session keyspaces and routes every inbound
// request to the right session's bound dispatcher.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	logger     *logger.Logger
	config     *config.Config

	resolver   auth.Resolver
	dispatcher *dispatch.Dispatcher
	sessions   *session.Registry
	legacy     *session.Registry
}

// New creates the HTTP server and wires its routes.
func New(cfg *config.Config, log *logger.Logger, resolver auth.Resolver, dispatcher *dispatch.Dispatcher) *Server {
	s := &Server{
		logger:     log,
		config:     cfg,
		resolver:   resolver,
		dispatcher: dispatcher,
		sessions:   session.NewRegistry("streamable", log),
		legacy:     session.NewRegistry("sse", log),
	}

	s.router = chi.NewRouter()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/health/auth", s.handleHealthAuth)

	s.router.Post("/mcp", s.handleStreamablePost)
	s.router.Get("/mcp", s.handleStreamableGet)
	s.router.Delete("/mcp", s.handleStreamableDelete)

	s.router.Get("/sse", s.handleLegacyStream)
	s.router.Post("/messages", s.handleLegacyMessage)
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving HTTP traffic and, when a session idle
// timeout is configured, the idle-expiry sweepers for both keyspaces.
// Clients that vanish without an explicit termination request would
// otherwise leak their sessions.
func (s *Server) ListenAndServe() error {
	if maxIdle := s.config.Server.SessionIdleTimeout; maxIdle > 0 {
		s.sessions.StartSweeper(maxIdle)
		s.legacy.StartSweeper(maxIdle)
	}

	s.logger.Info("HTTP server listening",
		"addr", s.httpServer.Addr,
	)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server and the session sweepers gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.StopSweeper()
	s.legacy.StopSweeper()
	return s.httpServer.Shutdown(ctx)
}

// bearerFromRequest extracts the bearer credential, if any.
func bearerFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// writeSSEHeaders prepares a response for server-sent events and returns the
// flusher, or nil when the connection cannot stream.
func writeSSEHeaders(w http.ResponseWriter) http.Flusher {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher
}

const keepaliveInterval = 30 * time.Second
