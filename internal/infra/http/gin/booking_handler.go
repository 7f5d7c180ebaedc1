package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	bookingapp "stayengine/internal/app/handlers/booking"
	"stayengine/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type quoteRequest struct {
	ListingID string            `json:"listing_id"`
	CheckIn   string            `json:"check_in"`
	CheckOut  string            `json:"check_out"`
	Guests    dto.GuestCountDTO `json:"guests"`
}

type createBookingRequest struct {
	quoteRequest
	SpecialRequests    string                     `json:"special_requests"`
	PaymentMethod      string                     `json:"payment_method"`
	AdditionalServices []dto.AdditionalServiceDTO `json:"additional_services"`
}

type transitionRequest struct {
	To              string `json:"to"`
	Reason          string `json:"reason"`
	CustomReason    string `json:"custom_reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

func (h BookingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := bookingapp.QuoteQuery{
		ListingID: strings.TrimSpace(req.ListingID),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    req.Guests,
	}
	result, err := queries.Ask[bookingapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ListingID:          strings.TrimSpace(req.ListingID),
		CheckIn:            checkIn,
		CheckOut:           checkOut,
		Guests:             req.Guests,
		SpecialRequests:    req.SpecialRequests,
		PaymentMethod:      strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		AdditionalServices: req.AdditionalServices,
		IdempotencyKeyV:    strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, dto.BookingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		To:              strings.ToLower(strings.TrimSpace(req.To)),
		Reason:          strings.ToLower(strings.TrimSpace(req.Reason)),
		CustomReason:    req.CustomReason,
		ExpectedVersion: req.ExpectedVersion,
	}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, dto.TransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
