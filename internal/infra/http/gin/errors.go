package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/handlers/availability"
	bookingapp "stayengine/internal/app/handlers/booking"
	"stayengine/internal/app/handlers/payments"
	"stayengine/internal/app/middleware"
	"stayengine/internal/app/principal"
	"stayengine/internal/app/queries"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	domainpricing "stayengine/internal/domain/pricing"
	"stayengine/internal/infra/validation"
)

type errorBody struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		middleware.ErrValidation,
		domainbooking.ErrInvalidDateRange,
		domainbooking.ErrInvalidGuests,
		domainbooking.ErrInvalidPaymentMethod,
		domainbooking.ErrSpecialRequestTooLong,
		domainbooking.ErrReasonRequired,
		domainbooking.ErrMissingCustomReason,
		domainbooking.ErrCustomReasonTooLong,
		domainbooking.ErrUnknownStatus,
		domainbooking.ErrInvalidStayDuration,
		domainbooking.ErrInvalidRate,
		domainpricing.ErrInvalidComponent,
		domainpricing.ErrInconsistentPrice,
		domainpricing.ErrCurrencyMismatch,
		availability.ErrCalendarWindow,
		payments.ErrUnknownPaymentStatus,
		payments.ErrMalformedEvent,
	}},
	{http.StatusUnauthorized, []error{principal.ErrUnauthenticated}},
	{http.StatusForbidden, []error{
		principal.ErrForbidden,
		bookingapp.ErrNotParticipant,
		domainbooking.ErrActorNotAllowed,
	}},
	{http.StatusNotFound, []error{domainbooking.ErrNotFound, domainlistings.ErrNotFound}},
	{http.StatusConflict, []error{
		domainbooking.ErrConcurrentUpdate,
		domainbooking.ErrActionInFlight,
		domainbooking.ErrDateRangeUnavailable,
		middleware.ErrIdempotencyKeyReuse,
	}},
	{http.StatusUnprocessableEntity, []error{
		domainbooking.ErrInvalidTransition,
		domainbooking.ErrTransitionNotDue,
		domainbooking.ErrCapacityExceeded,
	}},
	{http.StatusServiceUnavailable, []error{commands.ErrNilBus, queries.ErrNilBus}},
}

func statusFor(err error) int {
	for _, row := range statusTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and hidden from the caller.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	body := errorBody{Error: err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		}
		body = errorBody{Error: http.StatusText(status)}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
}
