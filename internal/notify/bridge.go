package notify

import "context"

// Bridge is the outward notification boundary of the scheduler. Calls are
// fire-and-forget: the caller logs failures and moves on, unlock state is
// authoritative regardless of delivery.
type Bridge interface {
	TipUnlocked(ctx context.Context, userID, tipID, position int) error
	DailyCompleted(ctx context.Context, userID, level int) error
}

// Noop discards all notifications. Used by hosts that run without MQ.
type Noop struct{}

func (Noop) TipUnlocked(ctx context.Context, userID, tipID, position int) error { return nil }

func (Noop) DailyCompleted(ctx context.Context, userID, level int) error { return nil }
