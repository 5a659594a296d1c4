// Package memory holds an in-memory Store used by tests and local runs
// without Postgres. It mirrors the SQL implementation's uniqueness and
// conditional-update guarantees under a mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"lingodrip/internal/drip"
	"lingodrip/internal/model"
)

type Store struct {
	mu           sync.Mutex
	users        map[int]*model.User
	tips         map[int]*model.Tip
	schedules    map[int]*model.DailySchedule // by schedule id
	interactions map[interactionKey]*model.TipInteraction
	nextSchedID  int
	nextInterID  int
}

type interactionKey struct {
	userID int
	tipID  int
}

var _ drip.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:        make(map[int]*model.User),
		tips:         make(map[int]*model.Tip),
		schedules:    make(map[int]*model.DailySchedule),
		interactions: make(map[interactionKey]*model.TipInteraction),
	}
}

// AddUser seeds a user.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// AddTip seeds a tip.
func (s *Store) AddTip(t model.Tip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tips[t.ID] = &t
}

func (s *Store) GetUser(ctx context.Context, userID int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, drip.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListActiveTipsForLevel(ctx context.Context, level int) ([]model.Tip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tips []model.Tip
	for _, t := range s.tips {
		if t.Level == level && t.IsActive {
			tips = append(tips, *t)
		}
	}
	return tips, nil
}

func (s *Store) ListUnlockedTipIDs(ctx context.Context, userID, level int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for key, i := range s.interactions {
		if key.userID != userID || !i.IsUnlocked {
			continue
		}
		if t, ok := s.tips[key.tipID]; ok && t.Level == level {
			ids = append(ids, key.tipID)
		}
	}
	return ids, nil
}

func (s *Store) FindScheduleByUserAndDay(ctx context.Context, userID int, dayStart time.Time) (*model.DailySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched := s.findLocked(userID, dayStart)
	if sched == nil {
		return nil, drip.ErrScheduleNotFound
	}
	return copySchedule(sched), nil
}

func (s *Store) InsertSchedule(ctx context.Context, sched *model.DailySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(sched.UserID, sched.DayStart) != nil {
		return drip.ErrScheduleExists
	}
	s.nextSchedID++
	sched.ID = s.nextSchedID
	s.schedules[sched.ID] = copySchedule(sched)
	return nil
}

func (s *Store) UpdateScheduleTimes(ctx context.Context, scheduleID int, first, second, third time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[scheduleID]
	if !ok {
		return drip.ErrScheduleNotFound
	}
	sched.First, sched.Second, sched.Third = first, second, third
	return nil
}

func (s *Store) MarkSlotUnlocked(ctx context.Context, scheduleID, position int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[scheduleID]
	if !ok {
		return false, drip.ErrScheduleNotFound
	}
	for i := range sched.Slots {
		slot := &sched.Slots[i]
		if slot.Position != position {
			continue
		}
		if slot.UnlockedAt != nil {
			return false, nil
		}
		unlockedAt := at
		slot.UnlockedAt = &unlockedAt
		return true, nil
	}
	return false, nil
}

func (s *Store) UpsertInteraction(ctx context.Context, userID, tipID int, unlockedAt time.Time, unlockOrder int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := interactionKey{userID: userID, tipID: tipID}
	i, ok := s.interactions[key]
	if !ok {
		s.nextInterID++
		i = &model.TipInteraction{
			ID:        s.nextInterID,
			UserID:    userID,
			TipID:     tipID,
			CreatedAt: time.Now(),
		}
		s.interactions[key] = i
	}
	at := unlockedAt
	i.IsUnlocked = true
	i.UnlockedAt = &at
	i.UnlockOrder = unlockOrder
	return nil
}

func (s *Store) BulkResetInteractions(ctx context.Context, userID, level int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, i := range s.interactions {
		if key.userID != userID || !i.IsUnlocked {
			continue
		}
		if t, ok := s.tips[key.tipID]; ok && t.Level == level {
			i.IsUnlocked = false
			i.UnlockOrder = 0
			n++
		}
	}
	return n, nil
}

func (s *Store) ListEligibleUserIDs(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, u := range s.users {
		if u.IsActive && u.QuizDone {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FindByID resolves one tip the way the SQL tip repository does.
func (s *Store) FindByID(ctx context.Context, id int) (*model.Tip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tips[id]
	if !ok {
		return nil, drip.ErrTipNotFound
	}
	cp := *t
	return &cp, nil
}

// FindByUserAndTip returns one interaction, nil when none exists.
func (s *Store) FindByUserAndTip(ctx context.Context, userID, tipID int) (*model.TipInteraction, error) {
	return s.Interaction(userID, tipID), nil
}

// MarkRead flags an unlocked tip as read.
func (s *Store) MarkRead(ctx context.Context, userID, tipID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.interactions[interactionKey{userID: userID, tipID: tipID}]; ok {
		i.IsRead = true
	}
	return nil
}

// SetFavorite toggles the favorite flag.
func (s *Store) SetFavorite(ctx context.Context, userID, tipID int, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.interactions[interactionKey{userID: userID, tipID: tipID}]; ok {
		i.IsFavorite = favorite
	}
	return nil
}

// Interaction exposes the stored interaction for assertions. Returns nil
// when none exists.
func (s *Store) Interaction(userID, tipID int) *model.TipInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[interactionKey{userID: userID, tipID: tipID}]
	if !ok {
		return nil
	}
	cp := *i
	return &cp
}

func (s *Store) findLocked(userID int, dayStart time.Time) *model.DailySchedule {
	for _, sched := range s.schedules {
		if sched.UserID == userID && sched.DayStart.Equal(dayStart) {
			return sched
		}
	}
	return nil
}

func copySchedule(in *model.DailySchedule) *model.DailySchedule {
	out := *in
	out.Slots = make([]model.UnlockSlot, len(in.Slots))
	for i, sl := range in.Slots {
		out.Slots[i] = sl
		if sl.UnlockedAt != nil {
			at := *sl.UnlockedAt
			out.Slots[i].UnlockedAt = &at
		}
	}
	return &out
}
