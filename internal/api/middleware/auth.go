// server/internal/api/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	SessionIDKey = "session_id"
)

// SessionChecker reports whether a token's session is still live.
type SessionChecker interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
}

// Authenticate verifies the bearer token and its session, then puts the caller
// into the request context.
func Authenticate(tokens *auth.TokenManager, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		active, err := sessions.IsActive(c.Request.Context(), claims.ID)
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !active {
			response.Abort(c, http.StatusUnauthorized, "Session has been revoked")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)
		c.Set(SessionIDKey, claims.ID)

		c.Next()
	}
}

// Authorize allows the request through only for the given roles.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(UserRoleKey)
		if userRole == "" {
			response.Abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, role := range allowedRoles {
			if role == userRole {
				c.Next()
				return
			}
		}

		response.Abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}
