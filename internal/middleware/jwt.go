package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stm32-workshop/backend/internal/auth"
	"github.com/stm32-workshop/backend/pkg/response"
)

const (
	// ContextUsername is the key for the admin username in gin context.
	ContextUsername = "username"
	// ContextUserRole is the key for the admin role in gin context.
	ContextUserRole = "user_role"
)

// JWT returns a middleware that validates the bearer token and sets the
// admin claims in context. The credential is always taken from the request;
// there is no ambient global auth state.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}
