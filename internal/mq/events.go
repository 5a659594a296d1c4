package mq

import "time"

// Routing keys published by the drip scheduler.
const (
	RoutingKeyTipUnlocked    = "tip.unlocked"
	RoutingKeyDailyCompleted = "daily.completed"
)

// TipUnlockedPayload announces one slot unlock. EventID makes redelivered
// messages recognizable to consumers.
type TipUnlockedPayload struct {
	EventID    string    `json:"event_id"`
	UserID     int       `json:"user_id"`
	TipID      int       `json:"tip_id"`
	Position   int       `json:"position"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DailyCompletedPayload announces that a user unlocked every slot of a day.
type DailyCompletedPayload struct {
	EventID     string    `json:"event_id"`
	UserID      int       `json:"user_id"`
	Level       int       `json:"level"`
	CompletedAt time.Time `json:"completed_at"`
}
