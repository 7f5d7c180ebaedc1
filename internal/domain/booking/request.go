package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/pricing"
	"stayengine/internal/domain/shared/daterange"
)

const (
	MaxSpecialRequestsLength = 500
	// MaxStayNights matches the longest calendar window a listing exposes.
	MaxStayNights = 366
)

// Request is a guest's booking request before it is checked against a listing.
type Request struct {
	GuestID            string
	CheckIn            time.Time
	CheckOut           time.Time
	Guests             GuestCount
	Price              *pricing.PriceBreakdown
	SpecialRequests    string
	PaymentMethod      PaymentMethod
	AdditionalServices []AdditionalService
}

// CreatePayload is what the booking store receives on create.
type CreatePayload struct {
	ListingID          listings.ListingID
	HostID             listings.HostID
	GuestID            string
	CheckIn            time.Time
	CheckOut           time.Time
	Guests             GuestCount
	Price              pricing.PriceBreakdown
	SpecialRequests    string
	PaymentMethod      PaymentMethod
	AdditionalServices []AdditionalService
	CancellationPolicy listings.CancellationPolicy
	InitialStatus      Status
}

// Rates are the fallback service fee and tax rates.
type Rates struct {
	ServiceFee float64
	Tax        float64
}

func DefaultRates() Rates {
	return Rates{ServiceFee: pricing.DefaultServiceFeeRate, Tax: pricing.DefaultTaxRate}
}

type Assembler struct {
	Rates Rates
}

// Assemble uses the default fallback rates.
func Assemble(l *listings.Listing, req Request) (CreatePayload, error) {
	return Assembler{Rates: DefaultRates()}.Assemble(l, req)
}

// Assemble validates req against l and produces the create payload. A price
// breakdown is computed from the listing's nightly rate when none is supplied.
// Availability is the caller's concern.
func (a Assembler) Assemble(l *listings.Listing, req Request) (CreatePayload, error) {
	dr, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return CreatePayload{}, ErrInvalidDateRange
	}
	if req.Guests.Adults < 1 || req.Guests.Children < 0 || req.Guests.Infants < 0 || req.Guests.Pets < 0 {
		return CreatePayload{}, ErrInvalidGuests
	}
	if occupants := req.Guests.Occupants(); occupants > l.Capacity() {
		return CreatePayload{}, fmt.Errorf("%w: %d guests, capacity %d", ErrCapacityExceeded, occupants, l.Capacity())
	}
	special := strings.TrimSpace(req.SpecialRequests)
	if utf8.RuneCountInString(special) > MaxSpecialRequestsLength {
		return CreatePayload{}, ErrSpecialRequestTooLong
	}
	if !req.PaymentMethod.Valid() {
		return CreatePayload{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	nights := dr.Nights()
	if nights > MaxStayNights {
		return CreatePayload{}, fmt.Errorf("%w: %d nights, at most %d", ErrInvalidStayDuration, nights, MaxStayNights)
	}
	price, err := a.price(l, req.Price, nights)
	if err != nil {
		return CreatePayload{}, err
	}

	status := StatusPending
	if l.InstantBook {
		status = StatusConfirmed
	}
	return CreatePayload{
		ListingID:          l.ID,
		HostID:             l.Host,
		GuestID:            req.GuestID,
		CheckIn:            dr.CheckIn,
		CheckOut:           dr.CheckOut,
		Guests:             req.Guests,
		Price:              price,
		SpecialRequests:    special,
		PaymentMethod:      req.PaymentMethod,
		AdditionalServices: append([]AdditionalService(nil), req.AdditionalServices...),
		CancellationPolicy: l.CancellationPolicy,
		InitialStatus:      status,
	}, nil
}

func (a Assembler) price(l *listings.Listing, supplied *pricing.PriceBreakdown, nights int) (pricing.PriceBreakdown, error) {
	if supplied != nil {
		if err := supplied.ValidateFor(l.Currency); err != nil {
			return pricing.PriceBreakdown{}, err
		}
		if supplied.Nights != nights {
			return pricing.PriceBreakdown{}, fmt.Errorf("%w: breakdown covers %d nights, range has %d", ErrInvalidStayDuration, supplied.Nights, nights)
		}
		return *supplied, nil
	}
	serviceFee, tax := a.Rates.ServiceFee, a.Rates.Tax
	return pricing.Calculate(pricing.Input{
		BasePrice:      l.NightlyRate,
		Nights:         nights,
		Currency:       l.Currency,
		ServiceFeeRate: &serviceFee,
		TaxRate:        &tax,
	})
}
