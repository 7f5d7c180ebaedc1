package dto

import (
	"time"

	domainbooking "stayengine/internal/domain/booking"
	domainpricing "stayengine/internal/domain/pricing"
	"stayengine/internal/domain/shared/money"
)

// MoneyDTO is an amount in units of 10^-precision of the currency.
type MoneyDTO struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Precision int    `json:"precision"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Precision: money.Precision(value.Currency)}
}

type DiscountsDTO struct {
	Weekly  MoneyDTO `json:"weekly"`
	Monthly MoneyDTO `json:"monthly"`
	Coupon  MoneyDTO `json:"coupon"`
}

type PriceBreakdownDTO struct {
	Nights      int          `json:"nights"`
	BasePrice   MoneyDTO     `json:"base_price"`
	Subtotal    MoneyDTO     `json:"subtotal"`
	CleaningFee MoneyDTO     `json:"cleaning_fee"`
	ServiceFee  MoneyDTO     `json:"service_fee"`
	Taxes       MoneyDTO     `json:"taxes"`
	Discounts   DiscountsDTO `json:"discounts"`
	TotalPrice  MoneyDTO     `json:"total_price"`
	Currency    string       `json:"currency"`
}

func MapPrice(p domainpricing.PriceBreakdown) PriceBreakdownDTO {
	d := p.Display()
	return PriceBreakdownDTO{
		Nights:      d.Nights,
		BasePrice:   MapMoney(d.BasePrice),
		Subtotal:    MapMoney(d.Subtotal),
		CleaningFee: MapMoney(d.CleaningFee),
		ServiceFee:  MapMoney(d.ServiceFee),
		Taxes:       MapMoney(d.Taxes),
		Discounts: DiscountsDTO{
			Weekly:  MapMoney(d.WeeklyDiscount),
			Monthly: MapMoney(d.MonthlyDiscount),
			Coupon:  MapMoney(d.CouponDiscount),
		},
		TotalPrice: MapMoney(d.TotalPrice),
		Currency:   p.Currency,
	}
}

type GuestCountDTO struct {
	Adults   int `json:"adults" validate:"gte=0"`
	Children int `json:"children" validate:"gte=0"`
	Infants  int `json:"infants" validate:"gte=0"`
	Pets     int `json:"pets" validate:"gte=0"`
}

func (g GuestCountDTO) Domain() domainbooking.GuestCount {
	return domainbooking.GuestCount{Adults: g.Adults, Children: g.Children, Infants: g.Infants, Pets: g.Pets}
}

type AdditionalServiceDTO struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Price float64 `json:"price" validate:"gte=0"`
}

type PaymentDTO struct {
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	RefundAmount  *MoneyDTO  `json:"refund_amount,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type CancellationDTO struct {
	CancelledAt  time.Time `json:"cancelled_at"`
	CancelledBy  string    `json:"cancelled_by"`
	Reason       string    `json:"reason"`
	CustomReason string    `json:"custom_reason,omitempty"`
	RefundAmount MoneyDTO  `json:"refund_amount"`
}

type BookingDTO struct {
	ID                 string                 `json:"id"`
	ListingID          string                 `json:"listing_id"`
	ListingTitle       string                 `json:"listing_title,omitempty"`
	HostID             string                 `json:"host_id"`
	GuestID            string                 `json:"guest_id"`
	GuestName          string                 `json:"guest_name,omitempty"`
	CheckIn            time.Time              `json:"check_in"`
	CheckOut           time.Time              `json:"check_out"`
	Status             string                 `json:"status"`
	StatusCategory     string                 `json:"status_category"`
	Price              PriceBreakdownDTO      `json:"price"`
	ConfirmationCode   string                 `json:"confirmation_code"`
	Payment            PaymentDTO             `json:"payment"`
	Cancellation       *CancellationDTO       `json:"cancellation,omitempty"`
	Guests             GuestCountDTO          `json:"guests"`
	SpecialRequests    string                 `json:"special_requests,omitempty"`
	AdditionalServices []AdditionalServiceDTO `json:"additional_services,omitempty"`
	CancellationPolicy string                 `json:"cancellation_policy,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	Version            int64                  `json:"version"`
}

// MapBooking converts b; listingTitle and guestName may be empty.
func MapBooking(b *domainbooking.Booking, listingTitle, guestName string) BookingDTO {
	currency := b.Price.Currency
	out := BookingDTO{
		ID:               string(b.ID),
		ListingID:        string(b.ListingID),
		ListingTitle:     listingTitle,
		HostID:           string(b.HostID),
		GuestID:          b.GuestID,
		GuestName:        guestName,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Status:           string(b.Status),
		StatusCategory:   b.Status.Category(),
		Price:            MapPrice(b.Price),
		ConfirmationCode: b.ConfirmationCode,
		Payment: PaymentDTO{
			Status:        string(b.Payment.Status),
			Method:        string(b.Payment.Method),
			TransactionID: b.Payment.TransactionID,
			PaidAt:        b.Payment.PaidAt,
		},
		Guests: GuestCountDTO{
			Adults:   b.Guests.Adults,
			Children: b.Guests.Children,
			Infants:  b.Guests.Infants,
			Pets:     b.Guests.Pets,
		},
		SpecialRequests:    b.SpecialRequests,
		CancellationPolicy: string(b.CancellationPolicy),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
	if b.Payment.RefundAmount != nil {
		refund := MapMoney(money.FromMajor(*b.Payment.RefundAmount, currency))
		out.Payment.RefundAmount = &refund
	}
	if c := b.Cancellation; c != nil {
		out.Cancellation = &CancellationDTO{
			CancelledAt:  c.CancelledAt,
			CancelledBy:  string(c.CancelledBy),
			Reason:       string(c.Reason),
			CustomReason: c.CustomReason,
			RefundAmount: MapMoney(money.FromMajor(c.RefundAmount, currency)),
		}
	}
	for _, s := range b.AdditionalServices {
		out.AdditionalServices = append(out.AdditionalServices, AdditionalServiceDTO{Name: s.Name, Price: s.Price})
	}
	return out
}

type BookingPage struct {
	Items        []BookingDTO `json:"items"`
	TotalItems   int          `json:"total_items"`
	TotalPages   int          `json:"total_pages"`
	CurrentPage  int          `json:"current_page"`
	ItemsPerPage int          `json:"items_per_page"`
}

func MapBookingPage(page domainbooking.Page) BookingPage {
	out := BookingPage{
		Items:        make([]BookingDTO, 0, len(page.Items)),
		TotalItems:   page.TotalItems,
		TotalPages:   page.TotalPages,
		CurrentPage:  page.CurrentPage,
		ItemsPerPage: page.ItemsPerPage,
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, MapBooking(item.Booking, item.ListingTitle, item.GuestFullName))
	}
	return out
}

type TransitionResult struct {
	Booking BookingDTO `json:"booking"`
	From    string     `json:"from"`
	To      string     `json:"to"`
}

type PaymentResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Changed   bool   `json:"changed"`
}
