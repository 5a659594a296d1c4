package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lingodrip/internal/mq"
	"lingodrip/pkg/circuitbreaker"
)

// MQBridge publishes unlock events to the RabbitMQ topic exchange. The
// circuit breaker keeps a down broker from stalling reconcile passes:
// while open, publishes fail fast and the caller drops them.
type MQBridge struct {
	producer *mq.Producer
	breaker  *circuitbreaker.CircuitBreaker
}

var _ Bridge = (*MQBridge)(nil)

func NewMQBridge(producer *mq.Producer) *MQBridge {
	return &MQBridge{
		producer: producer,
		breaker:  circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

func (b *MQBridge) TipUnlocked(ctx context.Context, userID, tipID, position int) error {
	payload := mq.TipUnlockedPayload{
		EventID:    uuid.NewString(),
		UserID:     userID,
		TipID:      tipID,
		Position:   position,
		UnlockedAt: time.Now().UTC(),
	}
	return b.breaker.Execute(func() error {
		return b.producer.Publish(ctx, mq.RoutingKeyTipUnlocked, payload)
	})
}

func (b *MQBridge) DailyCompleted(ctx context.Context, userID, level int) error {
	payload := mq.DailyCompletedPayload{
		EventID:     uuid.NewString(),
		UserID:      userID,
		Level:       level,
		CompletedAt: time.Now().UTC(),
	}
	return b.breaker.Execute(func() error {
		return b.producer.Publish(ctx, mq.RoutingKeyDailyCompleted, payload)
	})
}
