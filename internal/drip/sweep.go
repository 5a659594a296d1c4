package drip

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lingodrip/pkg/metrics"
)

// Lease serializes sweep work per user across processes. TryAcquire
// reports whether this process may reconcile the user right now;
// implementations are expected to fail open when the lease backend is
// unavailable, since the store's conditional updates already make
// duplicate reconciles harmless.
type Lease interface {
	TryAcquire(ctx context.Context, userID int) bool
	Release(ctx context.Context, userID int)
}

// SweepReport aggregates one pass over all eligible users. A user's
// failure never aborts the pass; it is recorded here instead.
type SweepReport struct {
	Swept    int
	Skipped  int
	Unlocked int
	Failures map[int]error
}

// Sweeper periodically reconciles every eligible user.
type Sweeper struct {
	store    Store
	rec      *Reconciler
	lease    Lease
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(store Store, rec *Reconciler, lease Lease, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		rec:      rec,
		lease:    lease,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNow overrides the sweep clock.
func (s *Sweeper) SetNow(now func() time.Time) {
	s.now = now
}

// Run ticks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			report := s.SweepOnce(ctx)
			s.logger.Info("sweep finished",
				zap.Int("swept", report.Swept),
				zap.Int("skipped", report.Skipped),
				zap.Int("unlocked", report.Unlocked),
				zap.Int("failed", len(report.Failures)),
			)
		}
	}
}

// SweepOnce reconciles all eligible users at a single observed now and
// returns the aggregate report.
func (s *Sweeper) SweepOnce(ctx context.Context) SweepReport {
	report := SweepReport{Failures: make(map[int]error)}

	userIDs, err := s.store.ListEligibleUserIDs(ctx)
	if err != nil {
		s.logger.Error("sweep: list eligible users failed", zap.Error(err))
		return report
	}

	now := s.now()
	for _, userID := range userIDs {
		if s.lease != nil && !s.lease.TryAcquire(ctx, userID) {
			report.Skipped++
			metrics.SweepUsers.WithLabelValues("skipped").Inc()
			continue
		}

		res, err := s.rec.Reconcile(ctx, userID, now)
		if s.lease != nil {
			s.lease.Release(ctx, userID)
		}
		if err != nil {
			report.Failures[userID] = err
			metrics.SweepUsers.WithLabelValues("failed").Inc()
			s.logger.Error("sweep: reconcile failed",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		report.Swept++
		report.Unlocked += len(res.NewlyUnlocked)
		metrics.SweepUsers.WithLabelValues("ok").Inc()
	}
	return report
}
