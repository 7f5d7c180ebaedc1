package availability

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"stayengine/internal/domain/shared/daterange"
)

var (
	ErrInvalidDateRange     = errors.New("availability: check-out must be after check-in")
	ErrDateRangeUnavailable = errors.New("availability: requested dates are unavailable")
)

// IsAvailable reports whether no night in [checkIn, checkOut) falls on one of
// the unavailable calendar days. Time of day is ignored on both sides. The
// caller validates checkIn < checkOut first.
func IsAvailable(unavailable []time.Time, checkIn, checkOut time.Time) bool {
	if len(unavailable) == 0 {
		return true
	}
	return NewCalendar(unavailable).IsAvailable(checkIn, checkOut)
}

// Calendar is a listing's blocked days keyed by calendar day.
type Calendar struct {
	blocked map[time.Time]struct{}
}

func NewCalendar(unavailable []time.Time) Calendar {
	blocked := make(map[time.Time]struct{}, len(unavailable))
	for _, d := range unavailable {
		if d.IsZero() {
			continue
		}
		blocked[daterange.Day(d)] = struct{}{}
	}
	return Calendar{blocked: blocked}
}

func (c Calendar) Len() int { return len(c.blocked) }

func (c Calendar) Blocked(day time.Time) bool {
	_, ok := c.blocked[daterange.Day(day)]
	return ok
}

func (c Calendar) IsAvailable(checkIn, checkOut time.Time) bool {
	if len(c.blocked) == 0 {
		return true
	}
	dr := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if dr.Nights() > len(c.blocked) {
		for day := range c.blocked {
			if dr.ContainsDate(day) {
				return false
			}
		}
		return true
	}
	free := true
	dr.EachNight(func(night time.Time) bool {
		if _, ok := c.blocked[night]; ok {
			free = false
		}
		return free
	})
	return free
}

// Conflicts lists the blocked nights of the range in order. Work is bounded
// by the smaller of the range and the blocked set.
func (c Calendar) Conflicts(checkIn, checkOut time.Time) []time.Time {
	var out []time.Time
	if len(c.blocked) == 0 {
		return out
	}
	dr := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if dr.Nights() > len(c.blocked) {
		for day := range c.blocked {
			if dr.ContainsDate(day) {
				out = append(out, day)
			}
		}
		slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
		return out
	}
	dr.EachNight(func(night time.Time) bool {
		if _, ok := c.blocked[night]; ok {
			out = append(out, night)
		}
		return true
	})
	return out
}

// Check validates the range and then its availability against the calendar.
func Check(unavailable []time.Time, checkIn, checkOut time.Time) error {
	if err := (daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}).Validate(); err != nil {
		return ErrInvalidDateRange
	}
	conflicts := NewCalendar(unavailable).Conflicts(checkIn, checkOut)
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: %d blocked night(s) starting %s", ErrDateRangeUnavailable, len(conflicts), conflicts[0].Format(time.DateOnly))
	}
	return nil
}
