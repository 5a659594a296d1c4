package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

// DripStore composes the per-entity repositories into the scheduler's
// Store interface.
type DripStore struct {
	users        *UserRepository
	tips         *TipRepository
	schedules    *ScheduleRepository
	interactions *InteractionRepository
}

var _ drip.Store = (*DripStore)(nil)

func NewDripStore(db *pgxpool.Pool) *DripStore {
	return &DripStore{
		users:        NewUserRepository(db),
		tips:         NewTipRepository(db),
		schedules:    NewScheduleRepository(db),
		interactions: NewInteractionRepository(db),
	}
}

func (s *DripStore) GetUser(ctx context.Context, userID int) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *DripStore) ListActiveTipsForLevel(ctx context.Context, level int) ([]model.Tip, error) {
	return s.tips.ListActiveForLevel(ctx, level)
}

func (s *DripStore) ListUnlockedTipIDs(ctx context.Context, userID, level int) ([]int, error) {
	return s.interactions.ListUnlockedTipIDs(ctx, userID, level)
}

func (s *DripStore) FindScheduleByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error) {
	return s.schedules.FindByUserAndDay(ctx, userID, dayStart)
}

func (s *DripStore) InsertSchedule(ctx context.Context, sched *model.DailySchedule) error {
	return s.schedules.Insert(ctx, sched)
}

func (s *DripStore) UpdateScheduleTimes(ctx context.Context, scheduleID int, first, second, third time.Time) error {
	return s.schedules.UpdateTimes(ctx, scheduleID, first, second, third)
}

func (s *DripStore) MarkSlotUnlocked(ctx context.Context, scheduleID, position int, at time.Time) (bool, error) {
	return s.schedules.MarkSlotUnlocked(ctx, scheduleID, position, at)
}

func (s *DripStore) UpsertInteraction(ctx context.Context, userID, tipID int, unlockedAt time.Time, unlockOrder int) error {
	return s.interactions.UpsertUnlocked(ctx, userID, tipID, unlockedAt, unlockOrder)
}

func (s *DripStore) BulkResetInteractions(ctx context.Context, userID, level int) (int, error) {
	return s.interactions.BulkReset(ctx, userID, level)
}

func (s *DripStore) ListEligibleUserIDs(ctx context.Context) ([]int, error) {
	return s.users.ListEligibleIDs(ctx)
}
