package booking

import (
	"strings"
	"time"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/pricing"
	"stayengine/internal/domain/shared/events"
)

type BookingID string

// GuestCount is the party size. Pets do not count toward capacity.
type GuestCount struct {
	Adults   int
	Children int
	Infants  int
	Pets     int
}

func (g GuestCount) Occupants() int {
	return g.Adults + g.Children + g.Infants
}

type AdditionalService struct {
	Name  string
	Price float64
}

// Payment is owned by the payment gateway. Transitions never change it.
type Payment struct {
	Status        PaymentStatus
	Method        PaymentMethod
	TransactionID string
	RefundAmount  *float64
	PaidAt        *time.Time
}

type Cancellation struct {
	CancelledAt  time.Time
	CancelledBy  Actor
	Reason       Reason
	CustomReason string
	RefundAmount float64
}

type Booking struct {
	ID                 BookingID
	ListingID          listings.ListingID
	HostID             listings.HostID
	GuestID            string
	CheckIn            time.Time
	CheckOut           time.Time
	Status             Status
	Price              pricing.PriceBreakdown
	ConfirmationCode   string
	Payment            Payment
	Cancellation       *Cancellation
	Guests             GuestCount
	SpecialRequests    string
	AdditionalServices []AdditionalService
	CancellationPolicy listings.CancellationPolicy
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.EventRecorder
}

// New builds a booking from an assembled payload. The store assigns Version.
func New(id BookingID, confirmationCode string, p CreatePayload, now time.Time) (*Booking, error) {
	if strings.TrimSpace(string(id)) == "" || strings.TrimSpace(p.GuestID) == "" || strings.TrimSpace(confirmationCode) == "" {
		return nil, ErrIncomplete
	}
	now = now.UTC()
	status := p.InitialStatus
	if status == "" {
		status = StatusPending
	}
	b := &Booking{
		ID:                 id,
		ListingID:          p.ListingID,
		HostID:             p.HostID,
		GuestID:            p.GuestID,
		CheckIn:            p.CheckIn,
		CheckOut:           p.CheckOut,
		Status:             status,
		Price:              p.Price,
		ConfirmationCode:   confirmationCode,
		Payment:            Payment{Status: PaymentPending, Method: p.PaymentMethod},
		Guests:             p.Guests,
		SpecialRequests:    p.SpecialRequests,
		AdditionalServices: append([]AdditionalService(nil), p.AdditionalServices...),
		CancellationPolicy: p.CancellationPolicy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	b.Record(BookingRequested{
		BookingID:        b.ID,
		ListingID:        b.ListingID,
		HostID:           b.HostID,
		GuestID:          b.GuestID,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Status:           b.Status,
		TotalPrice:       b.Price.TotalPrice,
		Currency:         b.Price.Currency,
		ConfirmationCode: b.ConfirmationCode,
		At:               now,
	})
	if status == StatusConfirmed {
		b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Instant: true, At: now})
	}
	return b, nil
}

// Change is a requested status change against the booking's current state.
type Change struct {
	To           Status
	Actor        Actor
	Reason       Reason
	CustomReason string
	At           time.Time
}

// RefundFunc settles the refund of an accepted cancellation.
type RefundFunc func(out Outcome, b *Booking) float64

// Apply runs the status machine and, on success, updates the booking and
// records the matching event. On error the booking is left untouched.
func (b *Booking) Apply(c Change, refund RefundFunc) (Outcome, error) {
	out, err := Transition(TransitionRequest{
		From:         b.Status,
		To:           c.To,
		Actor:        c.Actor,
		Reason:       c.Reason,
		CustomReason: c.CustomReason,
		Now:          c.At,
		CheckIn:      b.CheckIn,
		CheckOut:     b.CheckOut,
		Policy:       b.CancellationPolicy,
	})
	if err != nil {
		return Outcome{}, err
	}

	b.Status = out.To
	b.UpdatedAt = out.At
	switch {
	case out.IsCancellation():
		var amount float64
		if refund != nil {
			amount = refund(out, b)
		}
		b.Cancellation = &Cancellation{
			CancelledAt:  out.At,
			CancelledBy:  out.Actor,
			Reason:       out.Reason,
			CustomReason: out.CustomReason,
			RefundAmount: amount,
		}
		b.Record(BookingCancelled{
			BookingID:    b.ID,
			Status:       out.To,
			CancelledBy:  out.Actor,
			Reason:       out.Reason,
			Policy:       out.Policy,
			RefundAmount: amount,
			Currency:     b.Price.Currency,
			At:           out.At,
		})
	case out.To == StatusConfirmed:
		b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, At: out.At})
	case out.To == StatusInProgress:
		b.Record(BookingStarted{BookingID: b.ID, At: out.At})
	case out.To == StatusCompleted:
		b.Record(BookingCompleted{BookingID: b.ID, At: out.At})
	case out.To == StatusNoShow:
		b.Record(NoShowRecorded{BookingID: b.ID, At: out.At})
	}
	return out, nil
}

// StatusUpdate describes the booking's current status for a compare-and-swap
// write against the version it was loaded with.
func (b *Booking) StatusUpdate() StatusUpdate {
	u := StatusUpdate{
		BookingID:       b.ID,
		ExpectedVersion: b.Version,
		Status:          b.Status,
		UpdatedAt:       b.UpdatedAt,
	}
	if c := b.Cancellation; c != nil {
		cp := *c
		u.Reason = c.Reason
		u.CustomReason = c.CustomReason
		u.Cancellation = &cp
		amount := c.RefundAmount
		u.RefundAmount = &amount
	}
	return u
}

func (b *Booking) Nights() int {
	return b.Price.Nights
}
