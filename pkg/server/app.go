// Package server owns the application lifecycle: queue workers, the price
// feed, the HTTP server and graceful shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ChartSentry/internal/domain/repository"
	"ChartSentry/internal/service/pricefeed"
	"ChartSentry/pkg/config"
	xhttp "ChartSentry/pkg/http"
	"ChartSentry/pkg/logger"
	"ChartSentry/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *logger.Logger
	queue      queue.Queue
	handler    xhttp.Handler
	feed       *pricefeed.Client
	journal    repository.Journal
	events     repository.EventPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *logger.Logger,
	q queue.Queue,
	handler xhttp.Handler,
	feed *pricefeed.Client,
	journal repository.Journal,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:     cfg,
		logger:  l,
		queue:   q,
		handler: handler,
		feed:    feed,
		journal: journal,
		events:  events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.queue.Start(); err != nil {
		return err
	}
	a.logger.Info("queue started",
		logger.String("backend", a.cfg.Queue.Backend),
		logger.Int("workers", a.cfg.Queue.Workers))

	if a.feed != nil {
		go a.feed.Run(ctx)
		a.logger.Info("price feed started", logger.Strings("symbols", a.cfg.PriceFeed.Symbols))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", logger.Error(err))
		return err
	}
	a.logger.Info("listening", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services. The HTTP server closes first so
// no new signals arrive while the queue drains.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", logger.Error(err))
	}

	if err := a.queue.Stop(shutdownCtx); err != nil {
		a.logger.Warn("queue stop error", logger.Error(err))
	}

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("journal close error", logger.Error(err))
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", logger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
