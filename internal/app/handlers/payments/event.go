package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedEvent = errors.New("payments: malformed payment event")

// GatewayPrincipalID identifies the payment gateway as a system caller.
const GatewayPrincipalID = "payment-gateway"

// Event is a payment gateway notification in CloudEvents JSON form. Bare
// payloads without the envelope are accepted as well.
type Event struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data EventPayload `json:"data"`
}

type EventPayload struct {
	BookingID     string     `json:"booking_id"`
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	RefundAmount  *float64   `json:"refund_amount,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// DecodeEvent parses raw into a RecordPaymentCommand. fallbackID is used as
// the event id when the payload carries none.
func DecodeEvent(raw []byte, fallbackID string) (RecordPaymentCommand, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return RecordPaymentCommand{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.Data.BookingID == "" {
		var bare EventPayload
		if err := json.Unmarshal(raw, &bare); err == nil && bare.BookingID != "" {
			evt.Data = bare
		}
	}
	if evt.Data.BookingID == "" {
		return RecordPaymentCommand{}, fmt.Errorf("%w: booking_id missing", ErrMalformedEvent)
	}
	id := strings.TrimSpace(evt.ID)
	if id == "" {
		id = fallbackID
	}
	return RecordPaymentCommand{
		EventID:       id,
		BookingID:     strings.TrimSpace(evt.Data.BookingID),
		Status:        strings.ToLower(strings.TrimSpace(evt.Data.Status)),
		Method:        strings.ToLower(strings.TrimSpace(evt.Data.Method)),
		TransactionID: evt.Data.TransactionID,
		RefundAmount:  evt.Data.RefundAmount,
		PaidAt:        evt.Data.PaidAt,
	}, nil
}
