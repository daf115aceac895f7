package core

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 15 * time.Second

// App runs a Manager until the context ends or the process is signalled.
type App struct {
	Manager         *Manager
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

func NewApp(logger *slog.Logger, mgr *Manager) *App {
	return &App{
		Manager:         mgr,
		Logger:          logger,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Run enables the modules, waits for ctx to end or SIGINT/SIGTERM, then
// disables them. If Enable fails after binding, the modules are disabled
// before Run returns so any that started are stopped.
func (a *App) Run(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Manager.Enable(sigCtx); err != nil {
		if a.Manager.Enabled() {
			a.Logger.Error("enable failed, disabling modules", "error", err)
			err = errors.Join(err, a.shutdown())
		}
		return err
	}
	a.Logger.Info("modules enabled", "count", len(a.Manager.Modules()))

	<-sigCtx.Done()
	stop()

	a.Logger.Info("disabling modules")
	return a.shutdown()
}

// shutdown gives modules ShutdownTimeout to stop, detached from the run
// context.
func (a *App) shutdown() error {
	timeout := a.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Manager.Disable(shutdownCtx)
}
