package mongo

import (
	"time"

	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	domainpricing "stayengine/internal/domain/pricing"
)

type bookingDocument struct {
	ID                 string                `bson:"_id"`
	ListingID          string                `bson:"listing_id"`
	HostID             string                `bson:"host_id"`
	GuestID            string                `bson:"guest_id"`
	CheckIn            time.Time             `bson:"check_in"`
	CheckOut           time.Time             `bson:"check_out"`
	Status             string                `bson:"status"`
	Price              priceDocument         `bson:"price"`
	ConfirmationCode   string                `bson:"confirmation_code"`
	Payment            paymentDocument       `bson:"payment"`
	Cancellation       *cancellationDocument `bson:"cancellation,omitempty"`
	Guests             guestsDocument        `bson:"guests"`
	SpecialRequests    string                `bson:"special_requests,omitempty"`
	AdditionalServices []serviceDocument     `bson:"additional_services,omitempty"`
	CancellationPolicy string                `bson:"cancellation_policy,omitempty"`
	CreatedAt          time.Time             `bson:"created_at"`
	UpdatedAt          time.Time             `bson:"updated_at"`
	Version            int64                 `bson:"version"`
}

type priceDocument struct {
	Nights      int     `bson:"nights"`
	BasePrice   float64 `bson:"base_price"`
	Subtotal    float64 `bson:"subtotal"`
	CleaningFee float64 `bson:"cleaning_fee"`
	ServiceFee  float64 `bson:"service_fee"`
	Taxes       float64 `bson:"taxes"`
	Weekly      float64 `bson:"weekly_discount"`
	Monthly     float64 `bson:"monthly_discount"`
	Coupon      float64 `bson:"coupon_discount"`
	TotalPrice  float64 `bson:"total_price"`
	Currency    string  `bson:"currency"`
}

type paymentDocument struct {
	Status        string     `bson:"status"`
	Method        string     `bson:"method,omitempty"`
	TransactionID string     `bson:"transaction_id,omitempty"`
	RefundAmount  *float64   `bson:"refund_amount,omitempty"`
	PaidAt        *time.Time `bson:"paid_at,omitempty"`
}

type cancellationDocument struct {
	CancelledAt  time.Time `bson:"cancelled_at"`
	CancelledBy  string    `bson:"cancelled_by"`
	Reason       string    `bson:"reason,omitempty"`
	CustomReason string    `bson:"custom_reason,omitempty"`
	RefundAmount float64   `bson:"refund_amount"`
}

type guestsDocument struct {
	Adults   int `bson:"adults"`
	Children int `bson:"children"`
	Infants  int `bson:"infants"`
	Pets     int `bson:"pets"`
}

type serviceDocument struct {
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:               string(b.ID),
		ListingID:        string(b.ListingID),
		HostID:           string(b.HostID),
		GuestID:          b.GuestID,
		CheckIn:          b.CheckIn.UTC(),
		CheckOut:         b.CheckOut.UTC(),
		Status:           string(b.Status),
		Price:            newPriceDocument(b.Price),
		ConfirmationCode: b.ConfirmationCode,
		Payment: paymentDocument{
			Status:        string(b.Payment.Status),
			Method:        string(b.Payment.Method),
			TransactionID: b.Payment.TransactionID,
			RefundAmount:  b.Payment.RefundAmount,
			PaidAt:        b.Payment.PaidAt,
		},
		Cancellation:       newCancellationDocument(b.Cancellation),
		Guests:             guestsDocument(b.Guests),
		SpecialRequests:    b.SpecialRequests,
		CancellationPolicy: string(b.CancellationPolicy),
		CreatedAt:          b.CreatedAt.UTC(),
		UpdatedAt:          b.UpdatedAt.UTC(),
		Version:            b.Version,
	}
	for _, s := range b.AdditionalServices {
		doc.AdditionalServices = append(doc.AdditionalServices, serviceDocument(s))
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:               domainbooking.BookingID(d.ID),
		ListingID:        domainlistings.ListingID(d.ListingID),
		HostID:           domainlistings.HostID(d.HostID),
		GuestID:          d.GuestID,
		CheckIn:          d.CheckIn.UTC(),
		CheckOut:         d.CheckOut.UTC(),
		Status:           domainbooking.Status(d.Status),
		Price:            d.Price.toBreakdown(),
		ConfirmationCode: d.ConfirmationCode,
		Payment: domainbooking.Payment{
			Status:        domainbooking.PaymentStatus(d.Payment.Status),
			Method:        domainbooking.PaymentMethod(d.Payment.Method),
			TransactionID: d.Payment.TransactionID,
			RefundAmount:  d.Payment.RefundAmount,
			PaidAt:        d.Payment.PaidAt,
		},
		Guests:             domainbooking.GuestCount(d.Guests),
		SpecialRequests:    d.SpecialRequests,
		CancellationPolicy: domainlistings.CancellationPolicy(d.CancellationPolicy),
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		Version:            d.Version,
	}
	if c := d.Cancellation; c != nil {
		b.Cancellation = &domainbooking.Cancellation{
			CancelledAt:  c.CancelledAt.UTC(),
			CancelledBy:  domainbooking.Actor(c.CancelledBy),
			Reason:       domainbooking.Reason(c.Reason),
			CustomReason: c.CustomReason,
			RefundAmount: c.RefundAmount,
		}
	}
	for _, s := range d.AdditionalServices {
		b.AdditionalServices = append(b.AdditionalServices, domainbooking.AdditionalService(s))
	}
	return b
}

func newPriceDocument(p domainpricing.PriceBreakdown) priceDocument {
	return priceDocument{
		Nights:      p.Nights,
		BasePrice:   p.BasePrice,
		Subtotal:    p.Subtotal,
		CleaningFee: p.CleaningFee,
		ServiceFee:  p.ServiceFee,
		Taxes:       p.Taxes,
		Weekly:      p.Discounts.Weekly,
		Monthly:     p.Discounts.Monthly,
		Coupon:      p.Discounts.Coupon,
		TotalPrice:  p.TotalPrice,
		Currency:    p.Currency,
	}
}

func (d priceDocument) toBreakdown() domainpricing.PriceBreakdown {
	return domainpricing.PriceBreakdown{
		Nights:      d.Nights,
		BasePrice:   d.BasePrice,
		Subtotal:    d.Subtotal,
		CleaningFee: d.CleaningFee,
		ServiceFee:  d.ServiceFee,
		Taxes:       d.Taxes,
		Discounts:   domainpricing.DiscountBreakdown{Weekly: d.Weekly, Monthly: d.Monthly, Coupon: d.Coupon},
		TotalPrice:  d.TotalPrice,
		Currency:    d.Currency,
	}
}

func newCancellationDocument(c *domainbooking.Cancellation) *cancellationDocument {
	if c == nil {
		return nil
	}
	return &cancellationDocument{
		CancelledAt:  c.CancelledAt.UTC(),
		CancelledBy:  string(c.CancelledBy),
		Reason:       string(c.Reason),
		CustomReason: c.CustomReason,
		RefundAmount: c.RefundAmount,
	}
}

type listingDocument struct {
	ID                     string      `bson:"_id"`
	HostID                 string      `bson:"host_id"`
	Title                  string      `bson:"title"`
	NightlyRate            float64     `bson:"nightly_rate"`
	Currency               string      `bson:"currency"`
	GuestsLimit            int         `bson:"guests_limit"`
	Unavailable            []time.Time `bson:"unavailable_dates,omitempty"`
	WeeklyDiscountPercent  *float64    `bson:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent *float64    `bson:"monthly_discount_percent,omitempty"`
	CleaningFee            *float64    `bson:"cleaning_fee,omitempty"`
	CancellationPolicy     string      `bson:"cancellation_policy,omitempty"`
	InstantBook            bool        `bson:"instant_book"`
	UpdatedAt              time.Time   `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:                     string(l.ID),
		HostID:                 string(l.Host),
		Title:                  l.Title,
		NightlyRate:            l.NightlyRate,
		Currency:               l.Currency,
		GuestsLimit:            l.GuestsLimit,
		Unavailable:            l.Unavailable,
		WeeklyDiscountPercent:  l.WeeklyDiscountPercent,
		MonthlyDiscountPercent: l.MonthlyDiscountPercent,
		CleaningFee:            l.CleaningFee,
		CancellationPolicy:     string(l.CancellationPolicy),
		InstantBook:            l.InstantBook,
		UpdatedAt:              l.UpdatedAt.UTC(),
	}
}

func (d listingDocument) toListing() *domainlistings.Listing {
	l := &domainlistings.Listing{
		ID:                     domainlistings.ListingID(d.ID),
		Host:                   domainlistings.HostID(d.HostID),
		Title:                  d.Title,
		NightlyRate:            d.NightlyRate,
		Currency:               d.Currency,
		GuestsLimit:            d.GuestsLimit,
		Unavailable:            d.Unavailable,
		WeeklyDiscountPercent:  d.WeeklyDiscountPercent,
		MonthlyDiscountPercent: d.MonthlyDiscountPercent,
		CleaningFee:            d.CleaningFee,
		CancellationPolicy:     domainlistings.CancellationPolicy(d.CancellationPolicy),
		InstantBook:            d.InstantBook,
		UpdatedAt:              d.UpdatedAt.UTC(),
	}
	l.Normalize()
	return l
}
