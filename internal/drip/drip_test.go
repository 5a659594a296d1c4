package drip_test

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
	"lingodrip/internal/repository/memory"
)

// Shared fixtures for the scheduler tests: an in-memory store seeded with
// one eligible user and a recording bridge standing in for the
// notification transport.

const testUserID = 1

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// at is a clock on the test day.
func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func modelTip(id, level int) model.Tip {
	return model.Tip{ID: id, Level: level, Title: "tip", IsActive: true}
}

type tipEvent struct {
	userID   int
	tipID    int
	position int
}

// recordingBridge captures dispatched notifications. Err, when set, makes
// every dispatch fail.
type recordingBridge struct {
	mu          sync.Mutex
	tips        []tipEvent
	completions []int
	err         error
}

func (b *recordingBridge) TipUnlocked(ctx context.Context, userID, tipID, position int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.tips = append(b.tips, tipEvent{userID: userID, tipID: tipID, position: position})
	return nil
}

func (b *recordingBridge) DailyCompleted(ctx context.Context, userID, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.completions = append(b.completions, userID)
	return nil
}

func (b *recordingBridge) tipEvents() []tipEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]tipEvent, len(b.tips))
	copy(out, b.tips)
	return out
}

func (b *recordingBridge) completionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.completions)
}

func (b *recordingBridge) tipEventsForPosition(position int) []tipEvent {
	var out []tipEvent
	for _, e := range b.tipEvents() {
		if e.position == position {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	store      *memory.Store
	bridge     *recordingBridge
	pool       *drip.Pool
	builder    *drip.Builder
	reconciler *drip.Reconciler
}

// newHarness seeds one eligible user and tipCount active level-1 tips.
func newHarness(tipCount int) *harness {
	store := memory.NewStore()
	store.AddUser(model.User{
		ID:       testUserID,
		Email:    "learner@example.com",
		Level:    1,
		QuizDone: true,
		IsActive: true,
	})
	for i := 1; i <= tipCount; i++ {
		store.AddTip(model.Tip{ID: i, Level: 1, Title: "tip", IsActive: true})
	}

	logger := zap.NewNop()
	bridge := &recordingBridge{}
	pool := drip.NewPool(store, logger)
	builder := drip.NewBuilder(store, pool, drip.DefaultOffsets, time.UTC, logger)
	reconciler := drip.NewReconciler(store, builder, bridge, logger)

	return &harness{
		store:      store,
		bridge:     bridge,
		pool:       pool,
		builder:    builder,
		reconciler: reconciler,
	}
}

func (h *harness) schedule(userID int) *model.DailySchedule {
	sched, err := h.store.FindScheduleByUserAndDay(context.Background(), userID, testDay)
	if err != nil {
		return nil
	}
	return sched
}
