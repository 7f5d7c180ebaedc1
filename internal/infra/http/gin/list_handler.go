package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayengine/internal/app/dto"
	bookingapp "stayengine/internal/app/handlers/booking"
	"stayengine/internal/app/queries"
)

type BookingListHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type listQuery struct {
	Status       string `form:"status"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	ItemsPerPage int    `form:"items_per_page"`
}

func (q listQuery) filter() bookingapp.ListFilter {
	return bookingapp.ListFilter{Status: q.Status, Search: q.Search, Page: q.Page, ItemsPerPage: q.ItemsPerPage}
}

func (h BookingListHandler) Host(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingPage](c.Request.Context(), h.Queries,
		bookingapp.ListHostBookingsQuery{ListFilter: q.filter()})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingListHandler) Mine(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingPage](c.Request.Context(), h.Queries,
		bookingapp.ListGuestBookingsQuery{ListFilter: q.filter()})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingListHTTP = BookingListHandler{}
