package booking

import (
	"context"
	"time"

	"stayengine/internal/domain/listings"
	"stayengine/internal/domain/shared/daterange"
)

// StatusUpdate is a compare-and-swap write of a booking's status. It only
// succeeds while the stored version equals ExpectedVersion.
type StatusUpdate struct {
	BookingID       BookingID
	ExpectedVersion int64
	Status          Status
	Reason          Reason
	CustomReason    string
	Cancellation    *Cancellation
	RefundAmount    *float64
	UpdatedAt       time.Time
}

// PaymentUpdate carries a payment gateway notification. Nil fields are left as stored.
type PaymentUpdate struct {
	BookingID     BookingID
	Status        PaymentStatus
	Method        PaymentMethod
	TransactionID string
	RefundAmount  *float64
	PaidAt        *time.Time
	UpdatedAt     time.Time
}

type ListParams struct {
	ListingID listings.ListingID
	HostID    listings.HostID
	GuestID   string
	Statuses  []Status
}

// Store persists bookings. Create assigns version 1; every successful update
// increments it.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	UpdateStatus(ctx context.Context, u StatusUpdate) (*Booking, error)
	UpdatePayment(ctx context.Context, u PaymentUpdate) (*Booking, error)
	List(ctx context.Context, p ListParams) ([]*Booking, error)
}

func (p ListParams) Matches(b *Booking) bool {
	if p.ListingID != "" && b.ListingID != p.ListingID {
		return false
	}
	if p.HostID != "" && b.HostID != p.HostID {
		return false
	}
	if p.GuestID != "" && b.GuestID != p.GuestID {
		return false
	}
	if len(p.Statuses) == 0 {
		return true
	}
	for _, s := range p.Statuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// ApplyPayment merges a payment update into b.
func (b *Booking) ApplyPayment(u PaymentUpdate) {
	if u.Status != "" {
		b.Payment.Status = u.Status
	}
	if u.Method != "" {
		b.Payment.Method = u.Method
	}
	if u.TransactionID != "" {
		b.Payment.TransactionID = u.TransactionID
	}
	if u.RefundAmount != nil {
		amount := *u.RefundAmount
		b.Payment.RefundAmount = &amount
	}
	if u.PaidAt != nil {
		at := u.PaidAt.UTC()
		b.Payment.PaidAt = &at
	}
	if !u.UpdatedAt.IsZero() {
		b.UpdatedAt = u.UpdatedAt.UTC()
	}
}

// ApplyStatus merges a status update into b. Version is the store's concern.
func (b *Booking) ApplyStatus(u StatusUpdate) {
	b.Status = u.Status
	if !u.UpdatedAt.IsZero() {
		b.UpdatedAt = u.UpdatedAt.UTC()
	}
	if u.Cancellation != nil {
		c := *u.Cancellation
		if u.RefundAmount != nil {
			c.RefundAmount = *u.RefundAmount
		}
		b.Cancellation = &c
	}
	if u.RefundAmount != nil {
		amount := *u.RefundAmount
		b.Payment.RefundAmount = &amount
	}
}

// OccupiedNights lists the nights held by active bookings.
func OccupiedNights(bookings []*Booking) []time.Time {
	var out []time.Time
	for _, b := range bookings {
		if b == nil || !b.Status.Active() {
			continue
		}
		daterange.DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}.EachNight(func(night time.Time) bool {
			out = append(out, night)
			return true
		})
	}
	return out
}
