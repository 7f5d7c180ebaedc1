package ginserver

import (
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayengine/internal/app/principal"
)

// The API gateway authenticates callers and forwards their identity in
// these headers. Requests without a user id stay anonymous.
const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"
)

func PrincipalFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(userIDHeader))
		if id == "" {
			c.Next()
			return
		}
		p := principal.Principal{UserID: id, Role: parseRole(c.GetHeader(userRoleHeader))}
		c.Request = c.Request.WithContext(principal.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func parseRole(raw string) principal.Role {
	switch principal.Role(strings.ToLower(strings.TrimSpace(raw))) {
	case principal.RoleHost:
		return principal.RoleHost
	case principal.RoleSystem:
		return principal.RoleSystem
	default:
		return principal.RoleGuest
	}
}
