package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Sweeper interface {
	Sweep() int
}

// BackendProbe checks the remote API periodically. Only changes between
// reachable and unreachable are logged.
type BackendProbe struct {
	logger  *slog.Logger
	pinger  Pinger
	timeout time.Duration

	reachable atomic.Bool
	checked   atomic.Bool
}

func NewBackendProbe(logger *slog.Logger, pinger Pinger, timeout time.Duration) *BackendProbe {
	return &BackendProbe{logger: logger, pinger: pinger, timeout: timeout}
}

// Check pings once and reports whether the API answered.
func (p *BackendProbe) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	ok := err == nil

	previous := p.reachable.Swap(ok)
	first := !p.checked.Swap(true)
	switch {
	case ok && (first || !previous):
		p.logger.InfoContext(ctx, "Backend reachable")
	case !ok && (first || previous):
		p.logger.WarnContext(ctx, "Backend unreachable", "error", err)
	}
	return ok
}

func (p *BackendProbe) Reachable() bool {
	return p.reachable.Load()
}

func (p *BackendProbe) Task(interval time.Duration) Func {
	return func(ctx context.Context) error {
		p.Check(ctx)
		return Every(interval, func(ctx context.Context) error {
			p.Check(ctx)
			return nil
		})(ctx)
	}
}

// SweepTask drops expired entries from s on every tick.
func SweepTask(logger *slog.Logger, s Sweeper, interval time.Duration) Func {
	return Every(interval, func(ctx context.Context) error {
		if n := s.Sweep(); n > 0 {
			logger.DebugContext(ctx, "Swept expired entries", "count", n)
		}
		return nil
	})
}
