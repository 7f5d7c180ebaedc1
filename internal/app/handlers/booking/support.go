package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayengine/internal/app/policies"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	domainpricing "stayengine/internal/domain/pricing"
)

var ErrNotParticipant = errors.New("booking: caller is not a participant")

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// actorFor maps the caller onto the booking's host, guest or the system.
func actorFor(p principal.Principal, b *domainbooking.Booking) (domainbooking.Actor, error) {
	switch {
	case p.Role == principal.RoleSystem:
		return domainbooking.ActorSystem, nil
	case p.UserID == string(b.HostID):
		return domainbooking.ActorHost, nil
	case p.UserID == b.GuestID:
		return domainbooking.ActorGuest, nil
	}
	return "", ErrNotParticipant
}

// blockedDays is the listing calendar plus the nights held by active bookings.
func blockedDays(ctx context.Context, store domainbooking.Store, listing *domainlistings.Listing) ([]time.Time, error) {
	existing, err := store.List(ctx, domainbooking.ListParams{
		ListingID: listing.ID,
		Statuses:  []domainbooking.Status{domainbooking.StatusPending, domainbooking.StatusConfirmed, domainbooking.StatusInProgress},
	})
	if err != nil {
		return nil, err
	}
	occupied := domainbooking.OccupiedNights(existing)
	blocked := make([]time.Time, 0, len(listing.Unavailable)+len(occupied))
	blocked = append(blocked, listing.Unavailable...)
	return append(blocked, occupied...), nil
}

// externalPrice asks the pricing port for a breakdown. A nil result means the
// assembler's fallback applies.
func externalPrice(ctx context.Context, port policies.PricingPort, logger *slog.Logger, req policies.QuoteRequest) *domainpricing.PriceBreakdown {
	if port == nil {
		return nil
	}
	price, err := port.Quote(ctx, req)
	if err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "pricing port failed, using fallback", "listing_id", req.Listing.ID, "error", err)
		}
		return nil
	}
	return &price
}
