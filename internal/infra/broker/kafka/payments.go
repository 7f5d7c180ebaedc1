package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	"stayengine/internal/app/handlers/payments"
	"stayengine/internal/app/middleware"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
)

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// PaymentEventsHandler turns payment gateway messages into RecordPaymentCommand.
type PaymentEventsHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

// Handle returns an error only for failures worth retrying. Malformed
// events and unknown bookings are logged and dropped. On a retryable failure
// the inbox entry is forgotten so the next attempt dispatches again.
func (h *PaymentEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	fallbackID := fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	cmd, err := payments.DecodeEvent(msg.Value, fallbackID)
	if err != nil {
		h.log().WarnContext(ctx, "payment event dropped", "offset", msg.Offset, "partition", msg.Partition, "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if seen {
			h.log().DebugContext(ctx, "payment event duplicate", "event_id", cmd.EventID)
			return nil
		}
	}

	sysCtx := principal.WithPrincipal(ctx, principal.Principal{UserID: payments.GatewayPrincipalID, Role: principal.RoleSystem})
	_, err = commands.Dispatch[payments.RecordPaymentCommand, dto.PaymentResult](sysCtx, h.Commands, cmd)
	if err == nil {
		return nil
	}
	if permanent(err) {
		h.log().WarnContext(ctx, "payment event rejected", "event_id", cmd.EventID, "booking_id", cmd.BookingID, "error", err)
		return nil
	}
	if h.Inbox != nil {
		if ferr := h.Inbox.Forget(ctx, cmd.EventID); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	h.log().ErrorContext(ctx, "payment event failed", "event_id", cmd.EventID, "booking_id", cmd.BookingID, "error", err)
	return err
}

func permanent(err error) bool {
	return errors.Is(err, domainbooking.ErrNotFound) ||
		errors.Is(err, payments.ErrUnknownPaymentStatus) ||
		errors.Is(err, middleware.ErrValidation) ||
		errors.Is(err, principal.ErrForbidden)
}

func (h *PaymentEventsHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*PaymentEventsHandler)(nil)
