package httpserver

import (
	"net/http"
	"strings"

	"marketplace-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the authenticating edge. The core trusts them as
// given.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// identityMiddleware requires an authenticated user id on every API route.
// A missing role defaults to customer.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: "authentication required"})
			return
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserRole)))
		if role == "" {
			role = domain.RoleCustomer
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

func currentUser(c *gin.Context) (id, role string) {
	return c.GetString(ctxUserID), c.GetString(ctxUserRole)
}
