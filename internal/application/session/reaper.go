package session

import (
	"context"
	"time"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
)

const reaperService = "session_reaper"

// Reaper periodically drops unconfirmed sessions that have been idle longer
// than the TTL. A zero TTL disables it.
type Reaper struct {
	sessions domain.Registry
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	log    observability.Logger
	reaped observability.Counter // sessions_reaped_total
}

func NewReaper(sessions domain.Registry, ttl, interval time.Duration, tel observability.Observability) *Reaper {
	if tel == nil {
		tel = observability.Nop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      tel.Logger().With(observability.F("service", reaperService)),
		reaped:   tel.Metrics().Counter(observability.MSessionsReaped),
	}
}

func (r *Reaper) Enabled() bool { return r.ttl > 0 && r.sessions != nil }

// Run blocks until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	if !r.Enabled() {
		return
	}
	logger := logctx.FromOr(ctx, r.log)
	logger.Info("session_reaper_started",
		observability.F("ttl", r.ttl.String()),
		observability.F("interval", r.interval.String()),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("session_reaper_stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logger.Warn("session_reap_failed", observability.F("error", err))
			}
		}
	}
}

// Sweep removes every expired session once and reports how many went.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	if !r.Enabled() {
		return 0, nil
	}
	n, err := r.sessions.Reap(ctx, r.now().Add(-r.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.reaped.Add(float64(n))
		logctx.FromOr(ctx, r.log).Info("sessions_reaped", observability.F("count", n))
	}
	return n, nil
}
