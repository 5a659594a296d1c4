package model

import "time"

// DailySchedule is the unlock plan for one user and one calendar day.
// DayStart is the midnight instant the day is keyed by; (UserID, DayStart)
// is unique. Slots hold exactly the tips picked for that day, in unlock
// order; a short day (fewer than 3 slots) happens only when the content
// pool cannot supply 3 tips even after a history reset.
type DailySchedule struct {
	ID       int
	UserID   int
	DayStart time.Time
	First    time.Time
	Second   time.Time
	Third    time.Time
	Slots    []UnlockSlot
}

// UnlockSlot is one of the (up to) three unlock positions of a day.
// UnlockedAt is nil until the slot unlocks; once set it never changes.
type UnlockSlot struct {
	TipID      int
	Position   int
	UnlockedAt *time.Time
}

// TimeFor returns the scheduled unlock instant for a position (1..3).
func (s *DailySchedule) TimeFor(position int) time.Time {
	switch position {
	case 1:
		return s.First
	case 2:
		return s.Second
	case 3:
		return s.Third
	}
	return time.Time{}
}

// UnlockedCount reports how many slots have unlocked.
func (s *DailySchedule) UnlockedCount() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.UnlockedAt != nil {
			n++
		}
	}
	return n
}

// FullyUnlocked reports whether every slot of the day has unlocked.
func (s *DailySchedule) FullyUnlocked() bool {
	return len(s.Slots) > 0 && s.UnlockedCount() == len(s.Slots)
}
