package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayengine/internal/app/dto"
	availabilityapp "stayengine/internal/app/handlers/availability"
	"stayengine/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := parseDate("from", c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDate("to", c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.GetCalendarQuery{ListingID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
