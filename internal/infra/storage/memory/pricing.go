package memory

import (
	"context"
	"errors"

	"stayengine/internal/app/policies"
	domainbooking "stayengine/internal/domain/booking"
	domainpricing "stayengine/internal/domain/pricing"
	"stayengine/internal/domain/shared/daterange"
)

var ErrPricingListingMissing = errors.New("pricing: listing missing")

// ListingPricing prices a stay from the listing's own fee and discount
// configuration. It stands in for a remote pricing service in local runs.
type ListingPricing struct {
	Rates domainbooking.Rates
}

func NewListingPricing(rates domainbooking.Rates) ListingPricing {
	return ListingPricing{Rates: rates}
}

func (p ListingPricing) Quote(ctx context.Context, req policies.QuoteRequest) (domainpricing.PriceBreakdown, error) {
	if req.Listing == nil {
		return domainpricing.PriceBreakdown{}, ErrPricingListingMissing
	}
	dr, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return domainpricing.PriceBreakdown{}, err
	}
	in := domainpricing.InputFromListing(req.Listing, dr.Nights())
	serviceFee, tax := p.Rates.ServiceFee, p.Rates.Tax
	in.ServiceFeeRate = &serviceFee
	in.TaxRate = &tax
	return domainpricing.Calculate(in)
}

var _ policies.PricingPort = ListingPricing{}
