package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// Day truncates t to its calendar day. The year/month/day are read in t's own
// location and the result is midnight UTC, so two instants compare equal
// exactly when they fall on the same calendar date as written.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports calendar-day equality, ignoring time of day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts calendar days from a to b; negative when b precedes a.
// It works on Unix seconds because time.Duration saturates near 292 years.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

// DateRange represents a half-open interval of nights [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a validated range with both ends truncated to calendar days.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// EachNight calls fn for every occupied night in order; fn returning false stops the walk.
func (dr DateRange) EachNight(fn func(night time.Time) bool) {
	end := Day(dr.CheckOut)
	for d := Day(dr.CheckIn); d.Before(end); d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return Day(dr.CheckIn).Before(Day(other.CheckOut)) && Day(other.CheckIn).Before(Day(dr.CheckOut))
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(dr.CheckIn)) && d.Before(Day(dr.CheckOut))
}
