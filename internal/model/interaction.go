package model

import "time"

// TipInteraction is the durable per-(user, tip) marker. IsUnlocked is what
// the content pool uses to avoid re-serving a tip; a pool-exhaustion reset
// clears IsUnlocked and UnlockOrder but keeps read/favorite state.
// Invariant: IsUnlocked implies UnlockedAt != nil.
type TipInteraction struct {
	ID          int
	UserID      int
	TipID       int
	IsUnlocked  bool
	UnlockedAt  *time.Time
	UnlockOrder int
	IsRead      bool
	IsFavorite  bool
	CreatedAt   time.Time
}
