package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"lingodrip/internal/model"
	"lingodrip/internal/mq"
	"lingodrip/internal/repository"
	"lingodrip/internal/util"
)

// UnlockHandler consumes the scheduler's unlock events and turns them into
// in-app notification rows. The deduper keeps redelivered events from
// producing duplicate rows.
type UnlockHandler struct {
	notifications *repository.NotificationRepository
	deduper       *util.Deduper
	logger        *zap.Logger
}

func NewUnlockHandler(notifications *repository.NotificationRepository, deduper *util.Deduper, logger *zap.Logger) *UnlockHandler {
	return &UnlockHandler{
		notifications: notifications,
		deduper:       deduper,
		logger:        logger,
	}
}

func (h *UnlockHandler) HandleTipUnlocked(ctx context.Context, raw json.RawMessage) error {
	var p mq.TipUnlockedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}

	if !h.deduper.AcquireOnce(ctx, "tip_unlocked", p.EventID) {
		h.logger.Info("duplicate tip.unlocked event skipped",
			zap.String("event_id", p.EventID),
			zap.Int("user_id", p.UserID),
		)
		return nil
	}

	n := &model.Notification{
		UserID:  p.UserID,
		Type:    "tip_unlocked",
		Content: fmt.Sprintf("Your tip #%d for today is ready!", p.Position),
	}
	return h.notifications.Insert(ctx, n)
}

func (h *UnlockHandler) HandleDailyCompleted(ctx context.Context, raw json.RawMessage) error {
	var p mq.DailyCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}

	if !h.deduper.AcquireOnce(ctx, "daily_completed", p.EventID) {
		h.logger.Info("duplicate daily.completed event skipped",
			zap.String("event_id", p.EventID),
			zap.Int("user_id", p.UserID),
		)
		return nil
	}

	n := &model.Notification{
		UserID:  p.UserID,
		Type:    "daily_completed",
		Content: "You unlocked all of today's tips. Keep the streak going!",
	}
	return h.notifications.Insert(ctx, n)
}
