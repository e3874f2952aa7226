package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves the login gate in the background. The returned channel yields
// once: nil after a termination signal, or the listener error if serving
// failed.
func (a *App) Start() <-chan error {
	done := make(chan error, 1)
	sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("admin login gate listening", "address", a.httpServer.Addr)
		serveErr <- a.httpServer.ListenAndServe()
	}()

	go func() {
		defer stop()

		select {
		case <-sigCtx.Done():
			slog.Info("termination signal received, shutting down")
			done <- nil
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			} else {
				slog.Error("http server stopped unexpectedly", "error", err)
			}
			done <- err
		}
	}()

	return done
}

// Stop drains in-flight logins, then pending audit events, then closes the
// backing stores and brokers.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		defer a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "audit events not fully delivered", "error", err)
	}
	slog.InfoContext(ctx, "background tasks finished", "dropped", a.goroutine.Dropped())

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
}
