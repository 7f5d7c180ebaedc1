package ginserver

import (
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	"stayengine/internal/app/handlers/payments"
)

const maxWebhookBody = 64 << 10

// PaymentsHandler accepts payment gateway webhooks. The gateway must call
// with the system role. Redelivered events are harmless since recording an
// unchanged payment status is a no-op.
type PaymentsHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h PaymentsHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := payments.DecodeEvent(raw, uuid.NewString())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := commands.Dispatch[payments.RecordPaymentCommand, dto.PaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentsHTTP = PaymentsHandler{}
