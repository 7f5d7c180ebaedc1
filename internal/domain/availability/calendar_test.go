package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIsAvailable(t *testing.T) {
	blackout := []time.Time{day("2025-03-10"), day("2025-03-14")}

	cases := []struct {
		name     string
		in, out  string
		expected bool
	}{
		{"before blackout", "2025-03-01", "2025-03-05", true},
		{"checkout on blackout day is free", "2025-03-08", "2025-03-10", true},
		{"checkin on blackout day", "2025-03-10", "2025-03-12", false},
		{"range spans blackout", "2025-03-09", "2025-03-12", false},
		{"between blackouts", "2025-03-11", "2025-03-14", true},
		{"after blackouts", "2025-03-15", "2025-03-20", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAvailable(blackout, day(tc.in), day(tc.out)))
		})
	}
}

func TestIsAvailableIgnoresTimeOfDay(t *testing.T) {
	blackout := []time.Time{time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)}
	checkIn := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC)

	assert.False(t, IsAvailable(blackout, checkIn, checkOut))
}

func TestIsAvailableEmptyListAlwaysTrue(t *testing.T) {
	start := day("2025-01-01")
	for i := 0; i < 60; i++ {
		in := start.AddDate(0, 0, i)
		assert.True(t, IsAvailable(nil, in, in.AddDate(0, 0, 1+i%10)))
		assert.True(t, IsAvailable([]time.Time{}, in, in.AddDate(0, 0, 3)))
	}
}

func TestIsAvailableIsIdempotent(t *testing.T) {
	blackout := []time.Time{day("2025-06-02"), day("2025-06-20")}
	in, out := day("2025-06-01"), day("2025-06-05")

	first := IsAvailable(blackout, in, out)
	second := IsAvailable(blackout, in, out)
	assert.Equal(t, first, second)
	assert.Equal(t, []time.Time{day("2025-06-02"), day("2025-06-20")}, blackout)
}

func TestCalendarConflictsInOrder(t *testing.T) {
	cal := NewCalendar([]time.Time{day("2025-05-07"), day("2025-05-03"), day("2025-05-03"), day("2025-05-30")})
	assert.Equal(t, 3, cal.Len())
	assert.True(t, cal.Blocked(day("2025-05-07").Add(8*time.Hour)))

	got := cal.Conflicts(day("2025-05-01"), day("2025-05-10"))
	assert.Equal(t, []time.Time{day("2025-05-03"), day("2025-05-07")}, got)
	assert.Empty(t, cal.Conflicts(day("2025-05-08"), day("2025-05-30")))
}

func TestCheckRangeFullyInsideBlackout(t *testing.T) {
	var blackout []time.Time
	for d := day("2025-12-20"); d.Before(day("2026-01-05")); d = d.AddDate(0, 0, 1) {
		blackout = append(blackout, d)
	}

	err := Check(blackout, day("2025-12-24"), day("2025-12-27"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDateRangeUnavailable)
	assert.False(t, IsAvailable(blackout, day("2025-12-24"), day("2025-12-27")))
}

func TestCheckRejectsInvalidRange(t *testing.T) {
	assert.ErrorIs(t, Check(nil, day("2025-03-05"), day("2025-03-05")), ErrInvalidDateRange)
	assert.ErrorIs(t, Check(nil, day("2025-03-06"), day("2025-03-05")), ErrInvalidDateRange)
	assert.ErrorIs(t, Check(nil, time.Time{}, day("2025-03-05")), ErrInvalidDateRange)
	assert.NoError(t, Check(nil, day("2025-03-05"), day("2025-03-06")))
}

func TestLongRangeScansBlockedDaysOnly(t *testing.T) {
	blackout := []time.Time{day("2025-05-07"), day("2025-05-03"), day("9000-01-01")}
	in, out := day("2025-01-01"), day("9999-01-01")

	assert.False(t, IsAvailable(blackout, in, out))
	assert.Equal(t, []time.Time{day("2025-05-03"), day("2025-05-07"), day("9000-01-01")}, NewCalendar(blackout).Conflicts(in, out))
	assert.True(t, IsAvailable(blackout, day("2025-05-08"), day("8999-12-31")))
	assert.ErrorIs(t, Check(blackout, in, out), ErrDateRangeUnavailable)
}
