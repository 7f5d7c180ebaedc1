package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
)

// ListingRepository keeps listings in memory.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

// ByID returns a copy of the listing or listings.ErrNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainlistings.ErrNotFound, id)
	}
	return cloneListing(listing), nil
}

// Save validates and stores a normalized copy of listing.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	l := cloneListing(listing)
	l.Normalize()
	if err := l.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[l.ID] = l
	return nil
}

func (r *ListingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	out := *l
	out.Unavailable = append(l.Unavailable[:0:0], l.Unavailable...)
	out.CleaningFee = cloneFloat(l.CleaningFee)
	out.WeeklyDiscountPercent = cloneFloat(l.WeeklyDiscountPercent)
	out.MonthlyDiscountPercent = cloneFloat(l.MonthlyDiscountPercent)
	return &out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// BookingRepository stores bookings in memory with version compare-and-swap.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; exists {
		return fmt.Errorf("%w: booking %s already exists", domainbooking.ErrConcurrentUpdate, b.ID)
	}
	b.Version = 1
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrNotFound, id)
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, u domainbooking.StatusUpdate) (*domainbooking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[u.BookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrNotFound, u.BookingID)
	}
	if b.Version != u.ExpectedVersion {
		return nil, fmt.Errorf("%w: booking %s at version %d, expected %d", domainbooking.ErrConcurrentUpdate, u.BookingID, b.Version, u.ExpectedVersion)
	}
	next := cloneBooking(b)
	next.ApplyStatus(u)
	next.Version++
	r.items[u.BookingID] = next
	return cloneBooking(next), nil
}

func (r *BookingRepository) UpdatePayment(ctx context.Context, u domainbooking.PaymentUpdate) (*domainbooking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[u.BookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrNotFound, u.BookingID)
	}
	next := cloneBooking(b)
	next.ApplyPayment(u)
	next.Version++
	r.items[u.BookingID] = next
	return cloneBooking(next), nil
}

// List returns matching bookings ordered by creation time, newest first.
func (r *BookingRepository) List(ctx context.Context, p domainbooking.ListParams) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if p.Matches(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// cloneBooking copies b without its pending events.
func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := &domainbooking.Booking{
		ID:                 b.ID,
		ListingID:          b.ListingID,
		HostID:             b.HostID,
		GuestID:            b.GuestID,
		CheckIn:            b.CheckIn,
		CheckOut:           b.CheckOut,
		Status:             b.Status,
		Price:              b.Price,
		ConfirmationCode:   b.ConfirmationCode,
		Payment:            b.Payment,
		Guests:             b.Guests,
		SpecialRequests:    b.SpecialRequests,
		AdditionalServices: append([]domainbooking.AdditionalService(nil), b.AdditionalServices...),
		CancellationPolicy: b.CancellationPolicy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
	out.Payment.RefundAmount = cloneFloat(b.Payment.RefundAmount)
	if b.Payment.PaidAt != nil {
		at := *b.Payment.PaidAt
		out.Payment.PaidAt = &at
	}
	if b.Cancellation != nil {
		c := *b.Cancellation
		out.Cancellation = &c
	}
	return out
}

// GuestDirectory maps guest ids to full names.
type GuestDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewGuestDirectory(names map[string]string) *GuestDirectory {
	d := &GuestDirectory{names: make(map[string]string, len(names))}
	for id, name := range names {
		d.names[id] = strings.TrimSpace(name)
	}
	return d
}

func (d *GuestDirectory) Put(id, fullName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[id] = strings.TrimSpace(fullName)
}

func (d *GuestDirectory) FullNames(ctx context.Context, ids []string) (map[string]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := d.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}
