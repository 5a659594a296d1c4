package drip

import (
	"fmt"
	"time"
)

// SlotsPerDay is the nominal number of unlock positions in a day. Days can
// run short of it when the content pool is too small, never over it.
const SlotsPerDay = 3

// Offset is a wall-clock time of day.
type Offset struct {
	Hour   int
	Minute int
}

// Offsets are the three times of day at which slots unlock, in position
// order. They must be strictly increasing.
type Offsets [SlotsPerDay]Offset

// DefaultOffsets mirrors the production defaults: 09:00, 14:00, 18:45.
var DefaultOffsets = Offsets{{9, 0}, {14, 0}, {18, 45}}

// ParseOffset parses "HH:MM".
func ParseOffset(s string) (Offset, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return Offset{}, fmt.Errorf("bad time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Offset{}, fmt.Errorf("time of day %q out of range", s)
	}
	return Offset{Hour: h, Minute: m}, nil
}

// ParseOffsets parses the three configured "HH:MM" strings.
func ParseOffsets(ss []string) (Offsets, error) {
	var offs Offsets
	if len(ss) != SlotsPerDay {
		return offs, fmt.Errorf("expected %d unlock times, got %d", SlotsPerDay, len(ss))
	}
	prev := -1
	for i, s := range ss {
		off, err := ParseOffset(s)
		if err != nil {
			return offs, err
		}
		if off.Hour*60+off.Minute <= prev {
			return offs, fmt.Errorf("unlock times must be strictly increasing: %v", ss)
		}
		prev = off.Hour*60 + off.Minute
		offs[i] = off
	}
	return offs, nil
}

// DayStart normalizes an instant to midnight of its calendar day in loc.
// Day boundaries are service-global, not per user.
func DayStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// At applies the offset to a day's midnight instant.
func (o Offset) At(dayStart time.Time) time.Time {
	return dayStart.Add(time.Duration(o.Hour)*time.Hour + time.Duration(o.Minute)*time.Minute)
}

// Instants returns the three unlock instants for a day.
func (offs Offsets) Instants(dayStart time.Time) (first, second, third time.Time) {
	return offs[0].At(dayStart), offs[1].At(dayStart), offs[2].At(dayStart)
}
