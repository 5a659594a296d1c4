package drip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lingodrip/internal/model"
	"lingodrip/internal/notify"
	"lingodrip/pkg/metrics"
)

// ErrNotEligible is returned when the user cannot receive drip content:
// unknown, deactivated, or placement quiz not completed. Callers surface
// it; nothing retries it.
var ErrNotEligible = errors.New("user not eligible for drip content")

const defaultDispatchTimeout = 3 * time.Second

// Reconciler drives the slot state machine. A slot is either pending
// (unlocked_at is null) or unlocked; the transition happens exactly once,
// enforced by the store's conditional update, so overlapping reconciles for
// the same user are safe: each slot is unlocked by exactly one of them and
// only that one dispatches the slot's notification.
type Reconciler struct {
	store           Store
	builder         *Builder
	bridge          notify.Bridge
	logger          *zap.Logger
	dispatchTimeout time.Duration
}

func NewReconciler(store Store, builder *Builder, bridge notify.Bridge, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:           store,
		builder:         builder,
		bridge:          bridge,
		logger:          logger,
		dispatchTimeout: defaultDispatchTimeout,
	}
}

// Result is what one reconcile pass produced.
type Result struct {
	NewlyUnlocked []UnlockDelta
	TotalUnlocked int
	NextUnlockAt  time.Time
}

// Reconcile brings the user's schedule for now's calendar day up to date:
// it creates the schedule if absent (back-unlocking overdue slots at their
// scheduled instants) and unlocks every pending slot whose time has come
// (at now; catch-up unlocks carry the observed time, not the scheduled
// one). Newly unlocked slots are announced through the bridge; dispatch
// failures are logged and dropped, never failing the pass.
func (r *Reconciler) Reconcile(ctx context.Context, userID int, now time.Time) (Result, error) {
	start := time.Now()
	defer func() { metrics.ObserveReconcile(time.Since(start)) }()

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Result{}, ErrNotEligible
		}
		return Result{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	if !user.IsActive || !user.QuizDone {
		return Result{}, ErrNotEligible
	}

	sched, deltas, err := r.builder.BuildOrGet(ctx, user, now)
	if err != nil {
		return Result{}, err
	}
	for _, d := range deltas {
		metrics.SlotsUnlocked.WithLabelValues("backfill").Inc()
		r.dispatchTipUnlocked(ctx, userID, d)
	}

	for i := range sched.Slots {
		slot := &sched.Slots[i]
		if slot.UnlockedAt != nil {
			continue
		}
		if now.Before(sched.TimeFor(slot.Position)) {
			continue
		}

		won, err := r.store.MarkSlotUnlocked(ctx, sched.ID, slot.Position, now)
		if err != nil {
			return Result{}, fmt.Errorf("unlock slot %d: %w", slot.Position, err)
		}
		if !won {
			// A concurrent reconcile committed this slot; it also owns the
			// notification. Reflect the committed state locally.
			unlockedAt := now
			slot.UnlockedAt = &unlockedAt
			continue
		}

		unlockedAt := now
		slot.UnlockedAt = &unlockedAt
		if err := r.store.UpsertInteraction(ctx, userID, slot.TipID, now, slot.Position); err != nil {
			return Result{}, fmt.Errorf("upsert interaction: %w", err)
		}

		d := UnlockDelta{TipID: slot.TipID, Position: slot.Position, UnlockedAt: now}
		deltas = append(deltas, d)
		metrics.SlotsUnlocked.WithLabelValues("catchup").Inc()
		r.dispatchTipUnlocked(ctx, userID, d)
	}

	if sched.FullyUnlocked() && completedThisPass(deltas, len(sched.Slots)) {
		r.dispatchDailyCompleted(ctx, userID, user.Level)
	}

	return Result{
		NewlyUnlocked: deltas,
		TotalUnlocked: sched.UnlockedCount(),
		NextUnlockAt:  r.nextUnlockAt(sched, now),
	}, nil
}

// completedThisPass reports whether the final slot of the day is among the
// deltas of this pass. Keying the achievement on the last position keeps it
// at most once per day: later reconciles see a fully unlocked schedule and
// produce no deltas.
func completedThisPass(deltas []UnlockDelta, lastPosition int) bool {
	for _, d := range deltas {
		if d.Position == lastPosition {
			return true
		}
	}
	return false
}

// nextUnlockAt is the earliest still-scheduled instant after now; once the
// whole day is behind us it points at tomorrow's first slot.
func (r *Reconciler) nextUnlockAt(sched *model.DailySchedule, now time.Time) time.Time {
	for pos := 1; pos <= len(sched.Slots); pos++ {
		if t := sched.TimeFor(pos); t.After(now) {
			return t
		}
	}
	return r.builder.offsets[0].At(sched.DayStart.AddDate(0, 0, 1))
}

func (r *Reconciler) dispatchTipUnlocked(ctx context.Context, userID int, d UnlockDelta) {
	dctx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
	defer cancel()
	if err := r.bridge.TipUnlocked(dctx, userID, d.TipID, d.Position); err != nil {
		metrics.NotifyFailures.WithLabelValues("tip_unlocked").Inc()
		r.logger.Warn("tip unlock notification dropped",
			zap.Int("user_id", userID),
			zap.Int("tip_id", d.TipID),
			zap.Int("position", d.Position),
			zap.Error(err),
		)
	}
}

func (r *Reconciler) dispatchDailyCompleted(ctx context.Context, userID, level int) {
	dctx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
	defer cancel()
	if err := r.bridge.DailyCompleted(dctx, userID, level); err != nil {
		metrics.NotifyFailures.WithLabelValues("daily_completed").Inc()
		r.logger.Warn("daily completion notification dropped",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
	}
}
