package availability

import (
	"context"
	"errors"
	"time"

	"stayengine/internal/app/dto"
	"stayengine/internal/app/queries"
	domainavailability "stayengine/internal/domain/availability"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	"stayengine/internal/domain/shared/daterange"
)

const (
	getCalendarKey = "availability.calendar"
	// MaxCalendarDays bounds a single calendar request.
	MaxCalendarDays = 366
)

var ErrCalendarWindow = errors.New("availability: calendar window must be 1 to 366 days")

type GetCalendarQuery struct {
	ListingID string `validate:"required"`
	From      time.Time
	To        time.Time
}

func (GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Listings domainlistings.Source
	Bookings domainbooking.Store
	Now      func() time.Time
}

// Handle reports per-day availability over [From, To). Missing bounds default
// to today and thirty days after From.
func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	from := q.From
	if from.IsZero() {
		from = h.now()
	}
	from = daterange.Day(from)
	to := q.To
	if to.IsZero() {
		to = from.AddDate(0, 0, 30)
	}
	to = daterange.Day(to)
	if days := daterange.DaysBetween(from, to); days < 1 || days > MaxCalendarDays {
		return dto.Calendar{}, ErrCalendarWindow
	}

	listing, err := h.Listings.ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}
	blocked := append([]time.Time(nil), listing.Unavailable...)
	if h.Bookings != nil {
		existing, err := h.Bookings.List(ctx, domainbooking.ListParams{ListingID: listing.ID})
		if err != nil {
			return dto.Calendar{}, err
		}
		blocked = append(blocked, domainbooking.OccupiedNights(existing)...)
	}

	cal := domainavailability.NewCalendar(blocked)
	out := dto.Calendar{ListingID: string(listing.ID), From: from.Format(time.DateOnly), To: to.Format(time.DateOnly)}
	daterange.DateRange{CheckIn: from, CheckOut: to}.EachNight(func(day time.Time) bool {
		out.Days = append(out.Days, dto.CalendarDay{Date: day.Format(time.DateOnly), Available: !cal.Blocked(day)})
		return true
	})
	return out, nil
}

func (h *GetCalendarHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
