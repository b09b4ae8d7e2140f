package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName carries the token for browser sessions.
	CookieName = "ecg_token"
	// UserKey is the gin context key holding the authenticated username.
	UserKey = "username"
)

// RequireAuth rejects requests without a valid token in the Authorization header or the
// session cookie.
func RequireAuth(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Invalid token", "error", err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserKey, claims.Username)
		c.Next()
	}
}

// CurrentUser returns the username set by RequireAuth.
func CurrentUser(c *gin.Context) string {
	return c.GetString(UserKey)
}

func extractToken(c *gin.Context) string {
	if bearer := c.GetHeader("Authorization"); bearer != "" {
		parts := strings.Fields(bearer)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}
