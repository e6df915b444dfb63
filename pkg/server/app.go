package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BrentCast/internal/scheduler"
	"BrentCast/pkg/config"
	xhttp "BrentCast/pkg/http"
	applogger "BrentCast/pkg/logger"
)

// Option configures App.
type Option func(*App)

// WithClosers registers resources closed, in order, on shutdown.
func WithClosers(closers ...io.Closer) Option {
	return func(a *App) { a.closers = append(a.closers, closers...) }
}

// WithSignals overrides the signals that trigger shutdown.
func WithSignals(sigs ...os.Signal) Option {
	return func(a *App) { a.signals = sigs }
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	l          *applogger.Logger
	closers    []io.Closer
	signals    []os.Signal
}

// New creates a new App. The scheduler may be nil.
func New(cfg *config.Config, srv *xhttp.Server, sched *scheduler.Scheduler, l *applogger.Logger, opts ...Option) *App {
	a := &App{
		cfg:        cfg,
		httpServer: srv,
		scheduler:  sched,
		l:          l,
		signals:    []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.l == nil {
		a.l = applogger.Nop()
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), a.signals...)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.scheduler != nil {
		a.scheduler.Start()
		if a.cfg.Scheduler.RunOnStart {
			a.scheduler.RunOnStart()
		}
	}

	a.l.Info("brentcast started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Int("models", len(a.cfg.Models.Specs)),
		applogger.Bool("scheduler", a.scheduler != nil))

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	timeout := a.httpServer.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
