package ginserver

import (
	"fmt"
	"strings"
	"time"

	"stayengine/internal/domain/shared/daterange"
)

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// calendar date as written, at midnight UTC. Blank input yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD or RFC 3339, got %q", field, raw)
	}
	return daterange.Day(t), nil
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := parseDate("check_in", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := parseDate("check_out", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}
