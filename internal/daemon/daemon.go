// Package daemon supervises long-running background tasks.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Func is the work a daemon does. It should return when ctx is done.
type Func func(ctx context.Context) error

// Manager supervises daemons and restarts the ones that fail.
type Manager struct {
	logger       *slog.Logger
	restartDelay time.Duration

	daemons map[string]Func
	wg      sync.WaitGroup
}

func NewManager(logger *slog.Logger, restartDelay time.Duration) *Manager {
	return &Manager{
		logger:       logger,
		restartDelay: restartDelay,
		daemons:      make(map[string]Func),
	}
}

// Add registers a daemon by name. Call it before Start.
func (m *Manager) Add(name string, fn Func) {
	m.daemons[name] = fn
}

func (m *Manager) Start(ctx context.Context) {
	for name, fn := range m.daemons {
		m.wg.Add(1)
		go m.run(ctx, name, fn)
	}
}

// Wait blocks until every daemon has stopped.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, name string, fn Func) {
	defer m.wg.Done()

	for {
		err := fn(ctx)
		if ctx.Err() != nil {
			m.logger.Info("Daemon stopped", "daemon", name)
			return
		}
		if err == nil {
			m.logger.Info("Daemon exited", "daemon", name)
			return
		}

		m.logger.Error("Daemon crashed, restarting", "daemon", name, "error", err, "delay", m.restartDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.restartDelay):
		}
	}
}

// Every runs fn on each tick of interval until ctx is done. An error from fn
// ends the daemon so the manager restarts it.
func Every(interval time.Duration, fn func(ctx context.Context) error) Func {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}
