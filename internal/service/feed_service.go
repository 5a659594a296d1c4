package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

// ErrTipLocked is returned when a client touches a tip it has not
// unlocked yet.
var ErrTipLocked = errors.New("tip not unlocked")

type (
	// TipReader resolves tip content for unlocked slots.
	TipReader interface {
		FindByID(ctx context.Context, id int) (*model.Tip, error)
	}

	// InteractionWriter covers the read/favorite flags on unlocked tips.
	InteractionWriter interface {
		FindByUserAndTip(ctx context.Context, userID, tipID int) (*model.TipInteraction, error)
		MarkRead(ctx context.Context, userID, tipID int) error
		SetFavorite(ctx context.Context, userID, tipID int, favorite bool) error
	}

	// FeedSlot is one slot as the client sees it. Tip content is only
	// attached once the slot has unlocked.
	FeedSlot struct {
		Position   int
		UnlocksAt  time.Time
		Unlocked   bool
		UnlockedAt *time.Time
		Tip        *model.Tip
	}

	// FeedView is the "today" read model: the full schedule with per-slot
	// unlock state plus the countdown target.
	FeedView struct {
		DayStart      time.Time
		Slots         []FeedSlot
		UnlockedCount int
		NextUnlockAt  time.Time
	}

	FeedService struct {
		store        drip.Store
		reconciler   *drip.Reconciler
		tips         TipReader
		interactions InteractionWriter
		loc          *time.Location
	}
)

func NewFeedService(store drip.Store, reconciler *drip.Reconciler, tips TipReader, interactions InteractionWriter, loc *time.Location) *FeedService {
	return &FeedService{
		store:        store,
		reconciler:   reconciler,
		tips:         tips,
		interactions: interactions,
		loc:          loc,
	}
}

// Today reconciles the user's schedule at now and assembles the feed view.
// Opening the app is one of the two reconcile triggers, so due slots are
// committed before the view is built.
func (s *FeedService) Today(ctx context.Context, userID int, now time.Time) (*FeedView, error) {
	res, err := s.reconciler.Reconcile(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	sched, err := s.store.FindScheduleByUserAndDay(ctx, userID, drip.DayStart(now, s.loc))
	if err != nil {
		return nil, fmt.Errorf("load today's schedule: %w", err)
	}

	view := &FeedView{
		DayStart:      sched.DayStart,
		UnlockedCount: res.TotalUnlocked,
		NextUnlockAt:  res.NextUnlockAt,
	}
	for _, sl := range sched.Slots {
		fs := FeedSlot{
			Position:   sl.Position,
			UnlocksAt:  sched.TimeFor(sl.Position),
			Unlocked:   sl.UnlockedAt != nil,
			UnlockedAt: sl.UnlockedAt,
		}
		if fs.Unlocked {
			tip, err := s.tips.FindByID(ctx, sl.TipID)
			if err != nil {
				return nil, fmt.Errorf("load tip %d: %w", sl.TipID, err)
			}
			fs.Tip = tip
		}
		view.Slots = append(view.Slots, fs)
	}
	return view, nil
}

// TipDetail is the single-tip read model: full content plus the user's
// read/favorite flags.
type TipDetail struct {
	Tip        *model.Tip
	IsRead     bool
	IsFavorite bool
	UnlockedAt *time.Time
}

// GetTip returns one tip's full content, locked tips are refused.
func (s *FeedService) GetTip(ctx context.Context, userID, tipID int) (*TipDetail, error) {
	i, err := s.interactions.FindByUserAndTip(ctx, userID, tipID)
	if err != nil {
		return nil, err
	}
	if i == nil || !i.IsUnlocked {
		return nil, ErrTipLocked
	}
	tip, err := s.tips.FindByID(ctx, tipID)
	if err != nil {
		return nil, fmt.Errorf("load tip %d: %w", tipID, err)
	}
	return &TipDetail{
		Tip:        tip,
		IsRead:     i.IsRead,
		IsFavorite: i.IsFavorite,
		UnlockedAt: i.UnlockedAt,
	}, nil
}

// MarkRead flags an unlocked tip as read.
func (s *FeedService) MarkRead(ctx context.Context, userID, tipID int) error {
	if err := s.requireUnlocked(ctx, userID, tipID); err != nil {
		return err
	}
	return s.interactions.MarkRead(ctx, userID, tipID)
}

// SetFavorite toggles the favorite flag on an unlocked tip.
func (s *FeedService) SetFavorite(ctx context.Context, userID, tipID int, favorite bool) error {
	if err := s.requireUnlocked(ctx, userID, tipID); err != nil {
		return err
	}
	return s.interactions.SetFavorite(ctx, userID, tipID, favorite)
}

func (s *FeedService) requireUnlocked(ctx context.Context, userID, tipID int) error {
	i, err := s.interactions.FindByUserAndTip(ctx, userID, tipID)
	if err != nil {
		return err
	}
	if i == nil || !i.IsUnlocked {
		return ErrTipLocked
	}
	return nil
}
