package booking

import (
	"errors"

	"stayengine/internal/domain/availability"
	"stayengine/internal/domain/pricing"
)

var (
	ErrInvalidDateRange     = availability.ErrInvalidDateRange
	ErrDateRangeUnavailable = availability.ErrDateRangeUnavailable
	ErrInvalidStayDuration  = pricing.ErrInvalidStayDuration
	ErrInvalidRate          = pricing.ErrInvalidRate

	ErrCapacityExceeded      = errors.New("booking: guest count exceeds listing capacity")
	ErrInvalidGuests         = errors.New("booking: at least one adult is required")
	ErrSpecialRequestTooLong = errors.New("booking: special requests exceed 500 characters")
	ErrInvalidPaymentMethod  = errors.New("booking: unsupported payment method")
	ErrIncomplete            = errors.New("booking: id, guest and confirmation code are required")

	ErrInvalidTransition   = errors.New("booking: invalid transition")
	ErrActorNotAllowed     = errors.New("booking: actor may not perform this transition")
	ErrTransitionNotDue    = errors.New("booking: transition is not due yet")
	ErrReasonRequired      = errors.New("booking: cancellation reason required")
	ErrMissingCustomReason = errors.New("booking: custom reason required when reason is other")
	ErrCustomReasonTooLong = errors.New("booking: custom reason exceeds 500 characters")
	ErrUnknownStatus       = errors.New("booking: unknown status")

	ErrNotFound         = errors.New("booking: not found")
	ErrConcurrentUpdate = errors.New("booking: concurrent update")
	ErrActionInFlight   = errors.New("booking: another action is in progress")
)
