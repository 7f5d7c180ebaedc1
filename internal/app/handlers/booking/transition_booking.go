package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	"stayengine/internal/app/outbox"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
)

const transitionBookingKey = "booking.transition"

type TransitionBookingCommand struct {
	BookingID    string `validate:"required"`
	To           string `validate:"required"`
	Reason       string
	CustomReason string
	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion int64 `validate:"gte=0"`
}

func (TransitionBookingCommand) Key() string { return transitionBookingKey }

func (TransitionBookingCommand) RequiredRole() principal.Role { return "" }

type TransitionBookingHandler struct {
	Bookings domainbooking.Store
	Tracker  *domainbooking.ActionTracker
	Refund   domainbooking.RefundFunc
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Now      func() time.Time
	Logger   *slog.Logger
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (dto.TransitionResult, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return dto.TransitionResult{}, principal.ErrUnauthenticated
	}
	to, err := domainbooking.ParseStatus(cmd.To)
	if err != nil {
		return dto.TransitionResult{}, err
	}
	id := domainbooking.BookingID(strings.TrimSpace(cmd.BookingID))

	var result dto.TransitionResult
	run := func() error {
		b, err := h.Bookings.ByID(ctx, id)
		if err != nil {
			return err
		}
		if cmd.ExpectedVersion > 0 && cmd.ExpectedVersion != b.Version {
			return fmt.Errorf("%w: expected version %d, stored %d", domainbooking.ErrConcurrentUpdate, cmd.ExpectedVersion, b.Version)
		}
		actor, err := actorFor(caller, b)
		if err != nil {
			return err
		}
		out, err := b.Apply(domainbooking.Change{
			To:           to,
			Actor:        actor,
			Reason:       domainbooking.Reason(strings.TrimSpace(cmd.Reason)),
			CustomReason: cmd.CustomReason,
			At:           clock(h.Now).now(),
		}, h.refund())
		if err != nil {
			return err
		}
		stored, err := h.Bookings.UpdateStatus(ctx, b.StatusUpdate())
		if err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain()); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "booking transitioned",
				"booking_id", stored.ID, "from", out.From, "to", out.To, "actor", out.Actor,
				"reason", out.Reason, "policy", out.Policy, "version", stored.Version)
		}
		result = dto.TransitionResult{Booking: dto.MapBooking(stored, "", ""), From: string(out.From), To: string(out.To)}
		return nil
	}

	if h.Tracker != nil {
		err = h.Tracker.Run(id, run)
	} else {
		err = run()
	}
	if err != nil {
		return dto.TransitionResult{}, err
	}
	return result, nil
}

func (h *TransitionBookingHandler) refund() domainbooking.RefundFunc {
	if h.Refund != nil {
		return h.Refund
	}
	return domainbooking.PolicyRefund
}

var _ commands.Handler[TransitionBookingCommand, dto.TransitionResult] = (*TransitionBookingHandler)(nil)
