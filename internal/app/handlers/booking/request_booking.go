package booking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	"stayengine/internal/app/middleware"
	"stayengine/internal/app/outbox"
	"stayengine/internal/app/policies"
	"stayengine/internal/app/principal"
	"stayengine/internal/domain/availability"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	ListingID          string                     `validate:"required"`
	CheckIn            time.Time                  `validate:"required"`
	CheckOut           time.Time                  `validate:"required"`
	Guests             dto.GuestCountDTO
	SpecialRequests    string                     `validate:"max=2000"`
	PaymentMethod      string                     `validate:"omitempty,oneof=card upi cash"`
	AdditionalServices []dto.AdditionalServiceDTO `validate:"dive"`
	IdempotencyKeyV    string
}

func (RequestBookingCommand) Key() string { return requestBookingKey }

func (RequestBookingCommand) RequiredRole() principal.Role { return "" }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (RequestBookingCommand) ResultPrototype() any { return &dto.BookingDTO{} }

func (c RequestBookingCommand) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%+v|%s|%s|%+v",
		c.ListingID, c.CheckIn.Format(time.RFC3339), c.CheckOut.Format(time.RFC3339),
		c.Guests, c.SpecialRequests, c.PaymentMethod, c.AdditionalServices)))
	return hex.EncodeToString(sum[:])
}

type RequestBookingHandler struct {
	Listings  domainlistings.Source
	Bookings  domainbooking.Store
	Pricing   policies.PricingPort
	Assembler domainbooking.Assembler
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Now       func() time.Time
	NewID     func() domainbooking.BookingID
	NewCode   func() string
	Logger    *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (dto.BookingDTO, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return dto.BookingDTO{}, principal.ErrUnauthenticated
	}
	listing, err := h.Listings.ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if string(listing.Host) == caller.UserID {
		return dto.BookingDTO{}, fmt.Errorf("%w: hosts cannot book their own listing", principal.ErrForbidden)
	}

	blocked, err := blockedDays(ctx, h.Bookings, listing)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if err := availability.Check(blocked, cmd.CheckIn, cmd.CheckOut); err != nil {
		return dto.BookingDTO{}, err
	}

	guests := cmd.Guests.Domain()
	services := make([]domainbooking.AdditionalService, 0, len(cmd.AdditionalServices))
	for _, s := range cmd.AdditionalServices {
		services = append(services, domainbooking.AdditionalService{Name: s.Name, Price: s.Price})
	}
	payload, err := h.Assembler.Assemble(listing, domainbooking.Request{
		GuestID:            caller.UserID,
		CheckIn:            cmd.CheckIn,
		CheckOut:           cmd.CheckOut,
		Guests:             guests,
		Price:              externalPrice(ctx, h.Pricing, h.Logger, policies.QuoteRequest{Listing: listing, CheckIn: cmd.CheckIn, CheckOut: cmd.CheckOut, Guests: guests}),
		SpecialRequests:    cmd.SpecialRequests,
		PaymentMethod:      domainbooking.PaymentMethod(cmd.PaymentMethod),
		AdditionalServices: services,
	})
	if err != nil {
		return dto.BookingDTO{}, err
	}

	b, err := domainbooking.New(h.newID(), h.newCode(), payload, clock(h.Now).now())
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if err := h.Bookings.Create(ctx, b); err != nil {
		return dto.BookingDTO{}, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain()); err != nil {
		return dto.BookingDTO{}, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking requested",
			"booking_id", b.ID, "listing_id", b.ListingID, "guest_id", b.GuestID,
			"status", b.Status, "nights", b.Nights(), "total", b.Price.TotalPrice)
	}
	return dto.MapBooking(b, listing.Title, ""), nil
}

func (h *RequestBookingHandler) newID() domainbooking.BookingID {
	if h.NewID != nil {
		return h.NewID()
	}
	return domainbooking.NewID()
}

func (h *RequestBookingHandler) newCode() string {
	if h.NewCode != nil {
		return h.NewCode()
	}
	return domainbooking.NewConfirmationCode()
}

var _ commands.Handler[RequestBookingCommand, dto.BookingDTO] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
