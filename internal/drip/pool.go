package drip

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lingodrip/internal/model"
)

// Pool selects the candidate tips for a user's next schedule.
type Pool struct {
	store  Store
	logger *zap.Logger
}

func NewPool(store Store, logger *zap.Logger) *Pool {
	return &Pool{store: store, logger: logger}
}

// SelectCandidates returns the active tips at the user's level that the
// user has not unlocked yet.
//
// This is a read, with one exception: when fewer than SlotsPerDay tips
// remain, the user's unlock history for the level is reset and the whole
// level pool is returned. Repeats after exhaustion are intended behavior.
func (p *Pool) SelectCandidates(ctx context.Context, userID, level int) ([]model.Tip, error) {
	tips, err := p.store.ListActiveTipsForLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("list tips for level %d: %w", level, err)
	}

	unlockedIDs, err := p.store.ListUnlockedTipIDs(ctx, userID, level)
	if err != nil {
		return nil, fmt.Errorf("list unlocked tips: %w", err)
	}
	seen := make(map[int]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		seen[id] = true
	}

	remaining := make([]model.Tip, 0, len(tips))
	for _, t := range tips {
		if !seen[t.ID] {
			remaining = append(remaining, t)
		}
	}

	if len(remaining) >= SlotsPerDay {
		return remaining, nil
	}

	// Pool exhausted: previously seen tips become eligible again.
	if err := p.ResetUnlockHistory(ctx, userID, level); err != nil {
		return nil, err
	}
	return tips, nil
}

// ResetUnlockHistory clears the unlocked markers on all of the user's
// interactions for the level pool. Read and favorite state is kept.
func (p *Pool) ResetUnlockHistory(ctx context.Context, userID, level int) error {
	n, err := p.store.BulkResetInteractions(ctx, userID, level)
	if err != nil {
		return fmt.Errorf("reset unlock history: %w", err)
	}
	p.logger.Info("unlock history reset",
		zap.Int("user_id", userID),
		zap.Int("level", level),
		zap.Int("interactions", n),
	)
	return nil
}
