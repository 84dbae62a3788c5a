// Package server binds the HTTP listener and drains it on shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
)

const shutdownGrace = 10 * time.Second

// Start serves handler on addr until ctx is cancelled, then gives in-flight
// requests shutdownGrace to finish.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
