package middleware

import (
	"net/http"
	"strings"

	"titlehub/internal/api/permissions"
	"titlehub/internal/api/service"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It checks for the presence and validity of a JWT token in the Authorization header.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(callerKey, &permissions.Caller{
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      claims.Role,
			Superuser: claims.Superuser,
		})

		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or nil for anonymous
// requests (routes without AuthMiddleware).
func CallerFrom(c *gin.Context) *permissions.Caller {
	v, exists := c.Get(callerKey)
	if !exists {
		return nil
	}
	caller, ok := v.(*permissions.Caller)
	if !ok {
		return nil
	}
	return caller
}

// RequireAdmin gates the admin-only route groups. Runs after
// AuthMiddleware, so an unauthenticated caller never reaches it.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !permissions.AdminOnly(CallerFrom(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
