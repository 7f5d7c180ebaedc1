package booking

import (
	"time"

	"stayengine/internal/domain/listings"
)

type BookingRequested struct {
	BookingID        BookingID
	ListingID        listings.ListingID
	HostID           listings.HostID
	GuestID          string
	CheckIn          time.Time
	CheckOut         time.Time
	Status           Status
	TotalPrice       float64
	Currency         string
	ConfirmationCode string
	At               time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	ListingID listings.ListingID
	Instant   bool
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingStarted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingStarted) EventName() string     { return "booking.started" }
func (e BookingStarted) AggregateID() string   { return string(e.BookingID) }
func (e BookingStarted) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID    BookingID
	Status       Status
	CancelledBy  Actor
	Reason       Reason
	Policy       listings.CancellationPolicy
	RefundAmount float64
	Currency     string
	At           time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type NoShowRecorded struct {
	BookingID BookingID
	At        time.Time
}

func (e NoShowRecorded) EventName() string     { return "booking.no_show" }
func (e NoShowRecorded) AggregateID() string   { return string(e.BookingID) }
func (e NoShowRecorded) OccurredAt() time.Time { return e.At }
