// Package app provides application lifecycle management for the rir-manager server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ipam-rir/rir-manager/internal/app/storage"
	"github.com/ipam-rir/rir-manager/internal/config"
)

// RirManagerApp encapsulates all components needed to run the rir-manager
// server. It provides lifecycle management and graceful shutdown capabilities
type RirManagerApp struct {
	config     *config.Config
	components *AppComponents
	storage    storage.Factory
	httpServer *http.Server
	// ownsQueue is false when the queue was injected
	ownsQueue  bool

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	stopOnce   sync.Once
	stopErr    error
}

// Start listens on the configured address and runs the application. It
// blocks until Stop is called or a component fails.
func (app *RirManagerApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.StartWithListener(listener)
}

// StartWithListener runs the HTTP server on the given listener along with
// the job worker and, when enabled, the sync coordinator.
func (app *RirManagerApp) StartWithListener(listener net.Listener) error {
	g, gctx := errgroup.WithContext(app.ctx)

	if coord := app.components.SyncCoordinator; coord != nil {
		g.Go(func() error {
			if err := coord.Start(gctx); err != nil {
				return fmt.Errorf("sync coordinator failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := app.components.Worker.Run(gctx); err != nil {
			return fmt.Errorf("job worker failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", listener.Addr().String())
		err := app.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	// A failing component stops the HTTP server so the group can finish.
	g.Go(func() error {
		<-gctx.Done()
		if app.ctx.Err() == nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = app.httpServer.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

// Stop gracefully stops the application with the given timeout. It shuts
// down the HTTP server, stops background work and releases storage. Calls
// after the first return the first result.
func (app *RirManagerApp) Stop(timeout time.Duration) error {
	app.stopOnce.Do(func() {
		app.stopErr = app.stop(timeout)
	})
	return app.stopErr
}

func (app *RirManagerApp) stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if coord := app.components.SyncCoordinator; coord != nil {
		if err := coord.Stop(); err != nil {
			slog.Error("Failed to stop sync coordinator", "error", err)
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if q := app.components.Queue; q != nil && app.ownsQueue {
		if err := q.Close(); err != nil {
			slog.Error("Failed to close job queue", "error", err)
		}
	}

	if tp := app.components.Telemetry; tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}

	if app.storage != nil {
		app.storage.Cleanup()
	}

	slog.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *RirManagerApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *RirManagerApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the assembled application components
func (app *RirManagerApp) Components() *AppComponents {
	return app.components
}
