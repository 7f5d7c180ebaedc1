package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayengine/internal/app/dto"
	"stayengine/internal/app/policies"
	"stayengine/internal/app/queries"
	"stayengine/internal/domain/availability"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
)

const quoteKey = "booking.quote"

type QuoteQuery struct {
	ListingID string              `validate:"required"`
	CheckIn   time.Time           `validate:"required"`
	CheckOut  time.Time           `validate:"required"`
	Guests    dto.GuestCountDTO
}

func (QuoteQuery) Key() string { return quoteKey }

type QuoteHandler struct {
	Listings  domainlistings.Source
	Bookings  domainbooking.Store
	Pricing   policies.PricingPort
	Assembler domainbooking.Assembler
	Logger    *slog.Logger
}

// Handle checks availability and prices the stay. An unavailable range is
// reported in the result, not as an error.
func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	listing, err := h.Listings.ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Quote{}, err
	}
	blocked, err := blockedDays(ctx, h.Bookings, listing)
	if err != nil {
		return dto.Quote{}, err
	}

	out := dto.Quote{ListingID: string(listing.ID), CheckIn: q.CheckIn, CheckOut: q.CheckOut, Available: true}
	if err := availability.Check(blocked, q.CheckIn, q.CheckOut); err != nil {
		if !errors.Is(err, availability.ErrDateRangeUnavailable) {
			return dto.Quote{}, err
		}
		out.Available = false
		for _, d := range availability.NewCalendar(blocked).Conflicts(q.CheckIn, q.CheckOut) {
			out.Conflicts = append(out.Conflicts, d.Format(time.DateOnly))
		}
		return out, nil
	}

	guests := q.Guests.Domain()
	supplied := externalPrice(ctx, h.Pricing, h.Logger, policies.QuoteRequest{Listing: listing, CheckIn: q.CheckIn, CheckOut: q.CheckOut, Guests: guests})
	payload, err := h.Assembler.Assemble(listing, domainbooking.Request{
		CheckIn:  q.CheckIn,
		CheckOut: q.CheckOut,
		Guests:   guests,
		Price:    supplied,
	})
	if err != nil {
		return dto.Quote{}, err
	}
	price := dto.MapPrice(payload.Price)
	out.Price = &price
	out.CheckIn, out.CheckOut = payload.CheckIn, payload.CheckOut
	out.Source = dto.PriceSourceFallback
	if supplied != nil {
		out.Source = dto.PriceSourceExternal
	}
	return out, nil
}

var _ queries.Handler[QuoteQuery, dto.Quote] = (*QuoteHandler)(nil)
