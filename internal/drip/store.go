package drip

import (
	"context"
	"errors"
	"time"

	"lingodrip/internal/model"
)

var (
	// ErrScheduleNotFound is returned by FindScheduleByUserAndDay when no
	// record exists for the (user, day) pair.
	ErrScheduleNotFound = errors.New("daily schedule not found")

	// ErrScheduleExists is returned by InsertSchedule when another writer
	// created the (user, day) record first. The caller reloads and uses the
	// winner's record.
	ErrScheduleExists = errors.New("daily schedule already exists")

	// ErrUserNotFound is returned when the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTipNotFound is returned when a referenced tip does not exist.
	ErrTipNotFound = errors.New("tip not found")
)

// Store is the persistence boundary of the scheduler. Implementations must
// guarantee uniqueness on (user, day_start) and on (user, tip) so that
// InsertSchedule races surface as ErrScheduleExists and UpsertInteraction
// is safe to repeat.
type Store interface {
	GetUser(ctx context.Context, userID int) (*model.User, error)

	ListActiveTipsForLevel(ctx context.Context, level int) ([]model.Tip, error)
	ListUnlockedTipIDs(ctx context.Context, userID, level int) ([]int, error)

	FindScheduleByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error)
	InsertSchedule(ctx context.Context, sched *model.DailySchedule) error
	UpdateScheduleTimes(ctx context.Context, scheduleID int, first, second, third time.Time) error

	// MarkSlotUnlocked transitions one slot to unlocked if and only if it is
	// still pending. It reports false when another writer got there first;
	// the slot's stored unlocked_at is never overwritten.
	MarkSlotUnlocked(ctx context.Context, scheduleID, position int, at time.Time) (bool, error)

	UpsertInteraction(ctx context.Context, userID, tipID int, unlockedAt time.Time, unlockOrder int) error
	BulkResetInteractions(ctx context.Context, userID, level int) (int, error)

	// ListEligibleUserIDs returns the active users who completed the
	// placement quiz, i.e. everyone the background sweep should reconcile.
	ListEligibleUserIDs(ctx context.Context) ([]int, error)
}
