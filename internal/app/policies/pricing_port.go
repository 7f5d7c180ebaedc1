package policies

import (
	"context"
	"time"

	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	domainpricing "stayengine/internal/domain/pricing"
)

type QuoteRequest struct {
	Listing  *domainlistings.Listing
	CheckIn  time.Time
	CheckOut time.Time
	Guests   domainbooking.GuestCount
}

// PricingPort supplies a pre-computed breakdown for a stay. Its discount
// amounts are authoritative over local computation.
type PricingPort interface {
	Quote(ctx context.Context, req QuoteRequest) (domainpricing.PriceBreakdown, error)
}
