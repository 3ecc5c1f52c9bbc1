package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/framework/routing"
)

// Options configures the HTTP server of an Application.
type Options struct {
	Port            int
	ShutdownTimeout time.Duration
}

// Application ties the finalized container to the HTTP server. It owns the
// container: Close disposes its singletons.
type Application struct {
	Container *container.Container
	Router    *routing.Router
	Logger    *zap.Logger

	server          *http.Server
	shutdownTimeout time.Duration
}

// New creates the application. Routes must already be registered on router.
func New(c *container.Container, router *routing.Router, logger *zap.Logger, opts Options) *Application {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Application{
		Container: c,
		Router:    router,
		Logger:    logger,
		server: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(opts.Port)),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Addr is the listen address.
func (a *Application) Addr() string { return a.server.Addr }

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully. It returns nil after a clean shutdown.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- a.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("http server shutting down", zap.Duration("timeout", a.shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("app: serve: %w", err)
	}
	return nil
}

// Close disposes the container and flushes the logger.
func (a *Application) Close() error {
	err := a.Container.Close()
	_ = a.Logger.Sync()
	return err
}
