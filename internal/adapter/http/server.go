package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
)

const shutdownTimeout = 10 * time.Second

// NewServer mounts routes and /metrics behind the logging and recovery
// middleware.
func NewServer(port int, routes *http.ServeMux, metrics http.Handler, lgr logger.Logger) *http.Server {
	if metrics != nil {
		routes.Handle("GET /metrics", metrics)
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      Chain(routes, RecoveryMiddleware(lgr), LoggingMiddleware(lgr)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Serve runs server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, server *http.Server, lgr logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		lgr.Info("service_started", fmt.Sprintf("Listening on %s", server.Addr), "startup", nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", "Shutting down HTTP server", "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
