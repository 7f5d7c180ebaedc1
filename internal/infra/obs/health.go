package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandlers exposes liveness and readiness endpoints. Ready is probed
// with a short timeout; a nil Ready is always ready.
type HealthHandlers struct {
	Ready   func(ctx context.Context) error
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		if err := h.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
