// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"launchpad/internal/engine"
	"launchpad/internal/events"
)

// Server exposes the trade engine over HTTP and a websocket event feed.
type Server struct {
	engine *engine.Engine
	bus    *events.Bus
	logger *zap.Logger
	http   *http.Server
}

// New builds the HTTP server on the given listen address.
func New(addr string, eng *engine.Engine, bus *events.Bus, logger *zap.Logger) *Server {
	s := &Server{
		engine: eng,
		bus:    bus,
		logger: logger.Named("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/tokens", s.handleCreateToken)
	mux.HandleFunc("GET /api/tokens", s.handleListTokens)
	mux.HandleFunc("GET /api/tokens/{id}", s.handleGetToken)
	mux.HandleFunc("POST /api/tokens/{id}/trades", s.handleSubmitTrade)
	mux.HandleFunc("GET /api/tokens/{id}/trades", s.handleListTrades)
	mux.HandleFunc("GET /api/tokens/{id}/trades/export", s.handleExportTrades)
	mux.HandleFunc("GET /api/tokens/{id}/holders", s.handleListHolders)
	mux.HandleFunc("POST /api/tokens/{id}/comments", s.handlePostComment)
	mux.HandleFunc("GET /api/tokens/{id}/comments", s.handleListComments)

	mux.HandleFunc("GET /api/ws", s.handleWebsocket)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
