package drip_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

func TestReconcileBeforeFirstOffset(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(3, 0))
	require.NoError(t, err)

	assert.Empty(t, res.NewlyUnlocked)
	assert.Equal(t, 0, res.TotalUnlocked)
	assert.True(t, res.NextUnlockAt.Equal(at(9, 0)), "next unlock should be 09:00, got %v", res.NextUnlockAt)

	sched := h.schedule(testUserID)
	require.NotNil(t, sched)
	require.Len(t, sched.Slots, 3)
	for _, sl := range sched.Slots {
		assert.Nil(t, sl.UnlockedAt)
	}
}

func TestReconcileUnlocksFirstDueSlot(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	_, err := h.reconciler.Reconcile(ctx, testUserID, at(3, 0))
	require.NoError(t, err)

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)

	require.Len(t, res.NewlyUnlocked, 1)
	d := res.NewlyUnlocked[0]
	assert.Equal(t, 1, d.Position)
	assert.True(t, d.UnlockedAt.Equal(at(9, 1)), "catch-up unlock carries now, got %v", d.UnlockedAt)
	assert.Equal(t, 1, res.TotalUnlocked)
	assert.True(t, res.NextUnlockAt.Equal(at(14, 0)))

	sched := h.schedule(testUserID)
	assert.NotNil(t, sched.Slots[0].UnlockedAt)
	assert.Nil(t, sched.Slots[1].UnlockedAt)
	assert.Nil(t, sched.Slots[2].UnlockedAt)
}

func TestReconcileIdempotent(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	first, err := h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)
	require.Len(t, first.NewlyUnlocked, 1)

	second, err := h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)
	assert.Empty(t, second.NewlyUnlocked)
	assert.Equal(t, 1, second.TotalUnlocked)

	assert.Len(t, h.bridge.tipEvents(), 1)
}

func TestReconcileUnlockedAtMonotonic(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	_, err := h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)
	before := h.schedule(testUserID).Slots[0].UnlockedAt
	require.NotNil(t, before)

	_, err = h.reconciler.Reconcile(ctx, testUserID, at(9, 30))
	require.NoError(t, err)
	after := h.schedule(testUserID).Slots[0].UnlockedAt
	require.NotNil(t, after)
	assert.True(t, after.Equal(*before), "unlocked_at must never change once set")
}

func TestReconcileCatchUpUnlocksAllThree(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	_, err := h.reconciler.Reconcile(ctx, testUserID, at(3, 0))
	require.NoError(t, err)

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(19, 0))
	require.NoError(t, err)

	require.Len(t, res.NewlyUnlocked, 3)
	for _, d := range res.NewlyUnlocked {
		assert.True(t, d.UnlockedAt.Equal(at(19, 0)), "catch-up uses now, got %v", d.UnlockedAt)
	}
	assert.Equal(t, 3, res.TotalUnlocked)

	// all passed: next is tomorrow's first slot
	wantNext := testDay.AddDate(0, 0, 1).Add(9 * time.Hour)
	assert.True(t, res.NextUnlockAt.Equal(wantNext), "got %v", res.NextUnlockAt)

	assert.Equal(t, 1, h.bridge.completionCount())
}

func TestCompletionFiresAtMostOnce(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	_, err := h.reconciler.Reconcile(ctx, testUserID, at(19, 0))
	require.NoError(t, err)
	require.Equal(t, 1, h.bridge.completionCount())

	for i := 0; i < 3; i++ {
		res, err := h.reconciler.Reconcile(ctx, testUserID, at(19, 30))
		require.NoError(t, err)
		assert.Empty(t, res.NewlyUnlocked)
	}
	assert.Equal(t, 1, h.bridge.completionCount())
}

func TestFirstOpenLateBackUnlocksAtScheduledInstants(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(20, 0))
	require.NoError(t, err)

	require.Len(t, res.NewlyUnlocked, 3)
	sched := h.schedule(testUserID)
	wantTimes := []time.Time{at(9, 0), at(14, 0), at(18, 45)}
	for i, sl := range sched.Slots {
		require.NotNil(t, sl.UnlockedAt)
		assert.True(t, sl.UnlockedAt.Equal(wantTimes[i]),
			"slot %d back-unlocks at its scheduled instant, got %v", sl.Position, sl.UnlockedAt)
	}

	assert.Len(t, h.bridge.tipEvents(), 3)
	assert.Equal(t, 1, h.bridge.completionCount())

	// interactions carry the scheduled instants too
	for i, sl := range sched.Slots {
		inter := h.store.Interaction(testUserID, sl.TipID)
		require.NotNil(t, inter)
		assert.True(t, inter.IsUnlocked)
		require.NotNil(t, inter.UnlockedAt)
		assert.True(t, inter.UnlockedAt.Equal(wantTimes[i]))
		assert.Equal(t, i+1, inter.UnlockOrder)
	}
}

func TestConcurrentReconcilesUnlockExactlyOnce(t *testing.T) {
	h := newHarness(5)
	ctx := context.Background()

	// day exists with slot 1 unlocked, slot 2 pending
	_, err := h.reconciler.Reconcile(ctx, testUserID, at(9, 1))
	require.NoError(t, err)

	now := at(14, 5)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.reconciler.Reconcile(ctx, testUserID, now)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	sched := h.schedule(testUserID)
	require.NotNil(t, sched.Slots[1].UnlockedAt)
	assert.True(t, sched.Slots[1].UnlockedAt.Equal(now))

	assert.Len(t, h.bridge.tipEventsForPosition(2), 1, "exactly one notification for slot 2")
}

func TestDispatchFailureDoesNotFailReconcile(t *testing.T) {
	h := newHarness(5)
	h.bridge.err = errors.New("broker down")
	ctx := context.Background()

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(19, 0))
	require.NoError(t, err, "unlock state is authoritative, dispatch failures are swallowed")
	assert.Len(t, res.NewlyUnlocked, 3)

	sched := h.schedule(testUserID)
	assert.True(t, sched.FullyUnlocked())
}

func TestReconcileNotEligible(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		h := newHarness(5)
		_, err := h.reconciler.Reconcile(ctx, 42, at(9, 1))
		assert.ErrorIs(t, err, drip.ErrNotEligible)
	})

	t.Run("quiz not completed", func(t *testing.T) {
		h := newHarness(5)
		h.store.AddUser(model.User{ID: 2, Level: 1, QuizDone: false, IsActive: true})
		_, err := h.reconciler.Reconcile(ctx, 2, at(9, 1))
		assert.ErrorIs(t, err, drip.ErrNotEligible)
	})

	t.Run("deactivated", func(t *testing.T) {
		h := newHarness(5)
		h.store.AddUser(model.User{ID: 3, Level: 1, QuizDone: true, IsActive: false})
		_, err := h.reconciler.Reconcile(ctx, 3, at(9, 1))
		assert.ErrorIs(t, err, drip.ErrNotEligible)
	})
}

func TestShortScheduleCompletes(t *testing.T) {
	// only 2 tips exist at the level, so the day runs with 2 slots
	h := newHarness(2)
	ctx := context.Background()

	res, err := h.reconciler.Reconcile(ctx, testUserID, at(3, 0))
	require.NoError(t, err)
	sched := h.schedule(testUserID)
	require.Len(t, sched.Slots, 2)
	assert.Empty(t, res.NewlyUnlocked)

	res, err = h.reconciler.Reconcile(ctx, testUserID, at(15, 0))
	require.NoError(t, err)
	assert.Len(t, res.NewlyUnlocked, 2)

	// both slots unlocked: the short day is complete
	assert.Equal(t, 1, h.bridge.completionCount())

	// with every slot behind us, next points at tomorrow's first slot
	wantNext := testDay.AddDate(0, 0, 1).Add(9 * time.Hour)
	assert.True(t, res.NextUnlockAt.Equal(wantNext), "got %v", res.NextUnlockAt)
}
