// Package ws hosts the websocket endpoint of the card server: an HTTP
// server that upgrades connections on /sync and speaks the wire protocol
// over them, fanning snapshot pushes out through a hub.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kymbms/name-card-manage/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	handler *Handler
	logger  logging.Logger
}

func NewServer(address string, handler *Handler, logger logging.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		logger:  logger.With("module", "ws_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	mux := http.NewServeMux()
	mux.Handle("/sync", s.handler)

	srv := &http.Server{
		Addr:    s.address,
		Handler: mux,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting websocket server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping websocket server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
