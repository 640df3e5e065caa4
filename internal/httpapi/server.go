package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SeelanGov/thandi/internal/logging"
)

const shutdownGrace = 10 * time.Second

// Server runs the router until its context is cancelled
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer builds a server listening on cfg.Server.Address
func NewServer(cfg RouterConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logging.OrNop(cfg.Logger),
	}
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.httpServer.Addr})
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.logger.Info("HTTP server shutting down", nil)
	return s.httpServer.Shutdown(shutdownCtx)
}
