package booking

import (
	"context"
	"errors"

	"stayengine/internal/app/dto"
	"stayengine/internal/app/policies"
	"stayengine/internal/app/principal"
	"stayengine/internal/app/queries"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (GetBookingQuery) Key() string { return getBookingKey }

func (GetBookingQuery) RequiredRole() principal.Role { return "" }

type GetBookingHandler struct {
	Bookings domainbooking.Store
	Listings domainlistings.Source
	Guests   policies.GuestDirectory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingDTO, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return dto.BookingDTO{}, principal.ErrUnauthenticated
	}
	b, err := h.Bookings.ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if _, err := actorFor(caller, b); err != nil {
		// Non-participants get not found.
		return dto.BookingDTO{}, domainbooking.ErrNotFound
	}

	var title, guestName string
	if h.Listings != nil {
		if l, err := h.Listings.ByID(ctx, b.ListingID); err == nil {
			title = l.Title
		} else if !isNotFound(err) {
			return dto.BookingDTO{}, err
		}
	}
	if h.Guests != nil {
		names, err := h.Guests.FullNames(ctx, []string{b.GuestID})
		if err != nil {
			return dto.BookingDTO{}, err
		}
		guestName = names[b.GuestID]
	}
	return dto.MapBooking(b, title, guestName), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domainlistings.ErrNotFound)
}

var _ queries.Handler[GetBookingQuery, dto.BookingDTO] = (*GetBookingHandler)(nil)
