package drip_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

func TestBuildCreatesThreeOrderedSlots(t *testing.T) {
	h := newHarness(6)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	sched, deltas, err := h.builder.BuildOrGet(ctx, user, at(3, 0))
	require.NoError(t, err)
	assert.Empty(t, deltas, "nothing is due at 03:00")

	require.Len(t, sched.Slots, 3)
	seen := map[int]bool{}
	for i, sl := range sched.Slots {
		assert.Equal(t, i+1, sl.Position)
		assert.False(t, seen[sl.TipID], "tip ids must be unique within the schedule")
		seen[sl.TipID] = true
	}

	assert.True(t, sched.First.Equal(at(9, 0)))
	assert.True(t, sched.Second.Equal(at(14, 0)))
	assert.True(t, sched.Third.Equal(at(18, 45)))
	assert.True(t, sched.First.Before(sched.Second))
	assert.True(t, sched.Second.Before(sched.Third))
}

func TestBuildIsStableWithinADay(t *testing.T) {
	h := newHarness(6)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	first, _, err := h.builder.BuildOrGet(ctx, user, at(3, 0))
	require.NoError(t, err)
	second, deltas, err := h.builder.BuildOrGet(ctx, user, at(11, 0))
	require.NoError(t, err)

	assert.Empty(t, deltas, "an existing schedule never yields creation deltas")
	require.Len(t, second.Slots, 3)
	for i := range first.Slots {
		assert.Equal(t, first.Slots[i].TipID, second.Slots[i].TipID)
	}
}

func TestBuildBackUnlocksOverdueSlots(t *testing.T) {
	h := newHarness(6)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	// 15:00: slots 1 and 2 are overdue, slot 3 is not
	sched, deltas, err := h.builder.BuildOrGet(ctx, user, at(15, 0))
	require.NoError(t, err)

	require.Len(t, deltas, 2)
	assert.Equal(t, 1, deltas[0].Position)
	assert.True(t, deltas[0].UnlockedAt.Equal(at(9, 0)), "back-unlock uses the scheduled instant")
	assert.Equal(t, 2, deltas[1].Position)
	assert.True(t, deltas[1].UnlockedAt.Equal(at(14, 0)))

	require.NotNil(t, sched.Slots[0].UnlockedAt)
	require.NotNil(t, sched.Slots[1].UnlockedAt)
	assert.Nil(t, sched.Slots[2].UnlockedAt)
}

func TestScheduleTimeMigration(t *testing.T) {
	h := newHarness(6)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	// day created, first slot unlocked under the old configuration
	_, _, err = h.builder.BuildOrGet(ctx, user, at(3, 0))
	require.NoError(t, err)
	_, err = h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)
	unlockedBefore := h.schedule(testUserID).Slots[0].UnlockedAt
	require.NotNil(t, unlockedBefore)

	// operator moves the evening slot
	offsets, err := drip.ParseOffsets([]string{"09:00", "14:00", "20:30"})
	require.NoError(t, err)
	migrated := drip.NewBuilder(h.store, h.pool, offsets, time.UTC, zap.NewNop())

	sched, deltas, err := migrated.BuildOrGet(ctx, user, at(10, 0))
	require.NoError(t, err)
	assert.Empty(t, deltas)

	assert.True(t, sched.Third.Equal(at(20, 30)), "third instant rewritten from config")
	assert.True(t, sched.First.Equal(at(9, 0)))

	// persisted, and unlocked history untouched
	stored := h.schedule(testUserID)
	assert.True(t, stored.Third.Equal(at(20, 30)))
	require.NotNil(t, stored.Slots[0].UnlockedAt)
	assert.True(t, stored.Slots[0].UnlockedAt.Equal(*unlockedBefore))
}

func TestBuildShortPool(t *testing.T) {
	h := newHarness(2)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	sched, _, err := h.builder.BuildOrGet(ctx, user, at(3, 0))
	require.NoError(t, err)

	require.Len(t, sched.Slots, 2, "short pool serves what exists")
	assert.Equal(t, 1, sched.Slots[0].Position)
	assert.Equal(t, 2, sched.Slots[1].Position)
	assert.NotEqual(t, sched.Slots[0].TipID, sched.Slots[1].TipID, "never duplicate a tip to fill slots")
}

// racingStore reports the schedule missing on the first lookup so the
// builder walks into the insert while another writer's record already
// exists, the interleaving the unique index exists for.
type racingStore struct {
	drip.Store
	missedOnce bool
}

func (s *racingStore) FindScheduleByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error) {
	if !s.missedOnce {
		s.missedOnce = true
		return nil, drip.ErrScheduleNotFound
	}
	return s.Store.FindScheduleByUserAndDay(ctx, userID, dayStart)
}

func TestBuildLosesInsertRaceCleanly(t *testing.T) {
	h := newHarness(6)
	ctx := context.Background()

	user, err := h.store.GetUser(ctx, testUserID)
	require.NoError(t, err)

	// another writer created the day between our lookup and insert
	winner := &model.DailySchedule{
		UserID:   testUserID,
		DayStart: testDay,
		First:    at(9, 0),
		Second:   at(14, 0),
		Third:    at(18, 45),
		Slots: []model.UnlockSlot{
			{TipID: 1, Position: 1},
			{TipID: 2, Position: 2},
			{TipID: 3, Position: 3},
		},
	}
	require.NoError(t, h.store.InsertSchedule(ctx, winner))

	racing := &racingStore{Store: h.store}
	builder := drip.NewBuilder(racing, drip.NewPool(racing, zap.NewNop()), drip.DefaultOffsets, time.UTC, zap.NewNop())

	// 20:00: were the insert to win, it would back-unlock everything; the
	// loser must instead adopt the winner's record with no deltas.
	sched, deltas, err := builder.BuildOrGet(ctx, user, at(20, 0))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, sched.ID, "loser adopts the winner's record")
	assert.Empty(t, deltas, "back-unlock deltas belong to the insert winner only")
}
