package drip

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"lingodrip/internal/model"
)

// Builder creates or loads the DailySchedule for a (user, day) pair.
type Builder struct {
	store   Store
	pool    *Pool
	offsets Offsets
	loc     *time.Location
	logger  *zap.Logger
}

func NewBuilder(store Store, pool *Pool, offsets Offsets, loc *time.Location, logger *zap.Logger) *Builder {
	return &Builder{
		store:   store,
		pool:    pool,
		offsets: offsets,
		loc:     loc,
		logger:  logger,
	}
}

// UnlockDelta describes one slot that became unlocked.
type UnlockDelta struct {
	TipID      int
	Position   int
	UnlockedAt time.Time
}

// BuildOrGet returns the user's schedule for now's calendar day, creating
// it on first access.
//
// On creation, slots whose scheduled instant has already passed are
// unlocked immediately with unlocked_at set to the scheduled instant, not
// now; those back-unlocks are returned as deltas. Only the writer that wins
// the insert reports deltas, so a create race cannot double-announce them.
//
// On load, the stored unlock instants are migrated if the configured
// offsets changed since the record was written; slot unlock state is never
// touched by the migration.
func (b *Builder) BuildOrGet(ctx context.Context, user *model.User, now time.Time) (*model.DailySchedule, []UnlockDelta, error) {
	dayStart := DayStart(now, b.loc)

	sched, err := b.store.FindScheduleByUserAndDay(ctx, user.ID, dayStart)
	switch err {
	case nil:
		if err := b.migrateTimes(ctx, sched, dayStart); err != nil {
			return nil, nil, err
		}
		return sched, nil, nil
	case ErrScheduleNotFound:
		// fall through to create
	default:
		return nil, nil, fmt.Errorf("find schedule: %w", err)
	}

	sched, deltas, err := b.create(ctx, user, dayStart, now)
	if err == ErrScheduleExists {
		// Lost the create race; the winner owns the back-unlock deltas.
		sched, ferr := b.store.FindScheduleByUserAndDay(ctx, user.ID, dayStart)
		if ferr != nil {
			return nil, nil, fmt.Errorf("reload schedule after insert race: %w", ferr)
		}
		return sched, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return sched, deltas, nil
}

func (b *Builder) create(ctx context.Context, user *model.User, dayStart, now time.Time) (*model.DailySchedule, []UnlockDelta, error) {
	candidates, err := b.pool.SelectCandidates(ctx, user.ID, user.Level)
	if err != nil {
		return nil, nil, err
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > SlotsPerDay {
		candidates = candidates[:SlotsPerDay]
	}
	if len(candidates) < SlotsPerDay {
		// Short day: the level pool cannot fill 3 slots even after a reset.
		// We serve what exists rather than duplicating or blocking.
		b.logger.Warn("short daily schedule",
			zap.Int("user_id", user.ID),
			zap.Int("level", user.Level),
			zap.Int("slots", len(candidates)),
		)
	}

	first, second, third := b.offsets.Instants(dayStart)
	sched := &model.DailySchedule{
		UserID:   user.ID,
		DayStart: dayStart,
		First:    first,
		Second:   second,
		Third:    third,
	}

	var deltas []UnlockDelta
	for i, tip := range candidates {
		slot := model.UnlockSlot{TipID: tip.ID, Position: i + 1}
		if at := sched.TimeFor(slot.Position); !at.After(now) {
			// Back-unlock: the schedule is created after this slot's nominal
			// time, so it unlocks as if it had happened on time.
			unlockedAt := at
			slot.UnlockedAt = &unlockedAt
			deltas = append(deltas, UnlockDelta{TipID: tip.ID, Position: slot.Position, UnlockedAt: at})
		}
		sched.Slots = append(sched.Slots, slot)
	}

	if err := b.store.InsertSchedule(ctx, sched); err != nil {
		return nil, nil, err
	}

	for _, d := range deltas {
		if err := b.store.UpsertInteraction(ctx, user.ID, d.TipID, d.UnlockedAt, d.Position); err != nil {
			return nil, nil, fmt.Errorf("upsert interaction for back-unlock: %w", err)
		}
	}

	b.logger.Info("daily schedule created",
		zap.Int("user_id", user.ID),
		zap.Time("day_start", dayStart),
		zap.Int("slots", len(sched.Slots)),
		zap.Int("back_unlocked", len(deltas)),
	)
	return sched, deltas, nil
}

// migrateTimes rewrites the stored unlock instants when the configured
// offsets no longer match what the record was created with. Only the time
// triple changes; unlocked_at history stays as is.
func (b *Builder) migrateTimes(ctx context.Context, sched *model.DailySchedule, dayStart time.Time) error {
	first, second, third := b.offsets.Instants(dayStart)
	if sched.Third.Equal(third) {
		return nil
	}
	if err := b.store.UpdateScheduleTimes(ctx, sched.ID, first, second, third); err != nil {
		return fmt.Errorf("migrate schedule times: %w", err)
	}
	b.logger.Info("schedule times migrated",
		zap.Int("schedule_id", sched.ID),
		zap.Time("old_third", sched.Third),
		zap.Time("new_third", third),
	)
	sched.First, sched.Second, sched.Third = first, second, third
	return nil
}
