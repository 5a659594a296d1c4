package drip_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

// faultyStore fails schedule lookups for one user to simulate a per-user
// storage fault during a sweep.
type faultyStore struct {
	drip.Store
	failUserID int
}

var errStorageFault = errors.New("storage fault")

func (s *faultyStore) FindScheduleByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error) {
	if userID == s.failUserID {
		return nil, errStorageFault
	}
	return s.Store.FindScheduleByUserAndDay(ctx, userID, dayStart)
}

// denyLease refuses specific users.
type denyLease struct {
	deny map[int]bool
}

func (l *denyLease) TryAcquire(ctx context.Context, userID int) bool { return !l.deny[userID] }

func (l *denyLease) Release(ctx context.Context, userID int) {}

func newSweepHarness(store drip.Store, lease drip.Lease, now time.Time) *drip.Sweeper {
	logger := zap.NewNop()
	pool := drip.NewPool(store, logger)
	builder := drip.NewBuilder(store, pool, drip.DefaultOffsets, time.UTC, logger)
	reconciler := drip.NewReconciler(store, builder, &recordingBridge{}, logger)
	sweeper := drip.NewSweeper(store, reconciler, lease, time.Minute, logger)
	sweeper.SetNow(func() time.Time { return now })
	return sweeper
}

func TestSweepProcessesAllEligibleUsers(t *testing.T) {
	h := newHarness(6)
	h.store.AddUser(model.User{ID: 2, Level: 1, QuizDone: true, IsActive: true})
	h.store.AddUser(model.User{ID: 3, Level: 1, QuizDone: false, IsActive: true}) // not eligible

	sweeper := newSweepHarness(h.store, nil, at(9, 30))
	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 2, report.Swept)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 2, report.Unlocked, "one slot due per user at 09:30")
}

func TestSweepIsolatesPerUserFailures(t *testing.T) {
	h := newHarness(6)
	h.store.AddUser(model.User{ID: 2, Level: 1, QuizDone: true, IsActive: true})
	h.store.AddUser(model.User{ID: 3, Level: 1, QuizDone: true, IsActive: true})

	store := &faultyStore{Store: h.store, failUserID: 2}
	sweeper := newSweepHarness(store, nil, at(9, 30))
	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 2, report.Swept, "other users still processed")
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[2], errStorageFault)
}

func TestSweepSkipsLeasedUsers(t *testing.T) {
	h := newHarness(6)
	h.store.AddUser(model.User{ID: 2, Level: 1, QuizDone: true, IsActive: true})

	lease := &denyLease{deny: map[int]bool{testUserID: true}}
	sweeper := newSweepHarness(h.store, lease, at(9, 30))
	report := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Swept)
	assert.Empty(t, report.Failures)
}
