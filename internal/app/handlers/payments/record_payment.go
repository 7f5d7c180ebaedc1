package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
)

const recordPaymentKey = "payments.record"

var ErrUnknownPaymentStatus = errors.New("payments: unknown payment status")

// RecordPaymentCommand is a payment gateway notification.
type RecordPaymentCommand struct {
	EventID       string
	BookingID     string `validate:"required"`
	Status        string `validate:"required"`
	Method        string `validate:"omitempty,oneof=card upi cash"`
	TransactionID string
	RefundAmount  *float64 `validate:"omitempty,gte=0"`
	PaidAt        *time.Time
}

func (RecordPaymentCommand) Key() string { return recordPaymentKey }

// RequiredRole limits payment writes to the gateway integration.
func (RecordPaymentCommand) RequiredRole() principal.Role { return principal.RoleSystem }

type RecordPaymentHandler struct {
	Bookings domainbooking.Store
	Now      func() time.Time
	Logger   *slog.Logger
}

// Handle writes the payment fields only. The booking status is not touched.
func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (dto.PaymentResult, error) {
	status := domainbooking.PaymentStatus(cmd.Status)
	if !status.Valid() {
		return dto.PaymentResult{}, fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, cmd.Status)
	}
	id := domainbooking.BookingID(cmd.BookingID)
	current, err := h.Bookings.ByID(ctx, id)
	if err != nil {
		return dto.PaymentResult{}, err
	}
	if current.Payment.Status == status && (cmd.TransactionID == "" || cmd.TransactionID == current.Payment.TransactionID) {
		return dto.PaymentResult{BookingID: cmd.BookingID, Status: string(status)}, nil
	}

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	paidAt := cmd.PaidAt
	if status == domainbooking.PaymentPaid && paidAt == nil {
		paidAt = &now
	}
	updated, err := h.Bookings.UpdatePayment(ctx, domainbooking.PaymentUpdate{
		BookingID:     id,
		Status:        status,
		Method:        domainbooking.PaymentMethod(cmd.Method),
		TransactionID: cmd.TransactionID,
		RefundAmount:  cmd.RefundAmount,
		PaidAt:        paidAt,
		UpdatedAt:     now,
	})
	if err != nil {
		return dto.PaymentResult{}, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "payment recorded",
			"booking_id", updated.ID, "event_id", cmd.EventID,
			"from", current.Payment.Status, "to", updated.Payment.Status, "booking_status", updated.Status)
	}
	return dto.PaymentResult{BookingID: string(updated.ID), Status: string(updated.Payment.Status), Changed: true}, nil
}

var _ commands.Handler[RecordPaymentCommand, dto.PaymentResult] = (*RecordPaymentHandler)(nil)
