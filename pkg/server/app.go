package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	domrepo "MarketCast/internal/domain/repository"
	"MarketCast/internal/registry"
	"MarketCast/internal/usecase"
	"MarketCast/pkg/config"
	xhttp "MarketCast/pkg/http"
	applogger "MarketCast/pkg/logger"

	"github.com/robfig/cron/v3"
)

// App encapsulates the collector lifecycle: the ops HTTP server, the
// schedule evaluation loop, and graceful shutdown.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	coordinator *usecase.Coordinator
	registry    *registry.Registry
	publisher   domrepo.RecordPublisher
	store       domrepo.StateStore

	httpServer *xhttp.Server
	cron       *cron.Cron

	// passMu serializes collection passes; an evaluation that finds a
	// pass still running is skipped, not queued.
	passMu sync.Mutex
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	coordinator *usecase.Coordinator,
	reg *registry.Registry,
	publisher domrepo.RecordPublisher,
	store domrepo.StateStore,
) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		coordinator: coordinator,
		registry:    reg,
		publisher:   publisher,
		store:       store,
	}
}

// Run starts the application and blocks until interrupted. An in-flight
// pass finishes its current instrument before shutdown proceeds.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(nil,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}

	a.logStartupSummary()

	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@every "+a.cfg.Schedule.PollInterval.String(), func() {
		a.evaluate(ctx)
	}); err != nil {
		return err
	}
	a.cron.Start()

	// Evaluate once on startup so a missed trigger instant fires without
	// waiting for the first tick.
	go a.evaluate(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// evaluate runs one pass if none is in flight.
func (a *App) evaluate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !a.passMu.TryLock() {
		a.logger.Debug("pass still running, skipping evaluation")
		return
	}
	defer a.passMu.Unlock()

	outcome, err := a.coordinator.RunPass(ctx, time.Now())
	if err != nil {
		a.logger.Error("pass failed", applogger.Error(err))
		return
	}
	if outcome.NoOp() {
		a.logger.Debug("no cadence class due")
	}
}

func (a *App) shutdown() error {
	// Wait for the in-flight pass, if any, to wind down.
	a.passMu.Lock()
	a.passMu.Unlock()

	stopCtx := a.cron.Stop()
	<-stopCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown", applogger.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("publisher close", applogger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("state store close", applogger.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

// logStartupSummary reports the universe size and how long a full pass
// would take under the configured request budget.
func (a *App) logStartupSummary() {
	classes := a.registry.Classes()
	perRequest := a.cfg.RateLimit.Window / time.Duration(a.cfg.RateLimit.Capacity)
	for _, class := range classes {
		n := len(a.registry.Members(class))
		a.logger.Info("cadence class registered",
			applogger.String("class", string(class)),
			applogger.Int("instruments", n),
			applogger.Duration("full_pass_at_budget", time.Duration(n)*perRequest))
	}
	a.logger.Info("collector ready",
		applogger.Int("instruments", a.registry.Len()),
		applogger.Int("rate_capacity", a.cfg.RateLimit.Capacity),
		applogger.Duration("rate_window", a.cfg.RateLimit.Window),
		applogger.Duration("poll_interval", a.cfg.Schedule.PollInterval))
}
