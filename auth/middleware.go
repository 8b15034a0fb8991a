package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-live/errors"
)

// Gin context keys for the authenticated identity.
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// Middleware validates the bearer token on REST calls and injects the
// caller's identity into the request context for downstream handlers.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := FromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": errors.ErrUnauthenticated.Error()})
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// FromRequest extracts and validates the bearer token carried by an HTTP
// request. The websocket handshake shares this path with REST middleware:
// browsers cannot set headers on upgrade requests, so a "token" query
// parameter is accepted as a fallback.
func FromRequest(r *http.Request) (*CustomClaims, error) {
	var raw string
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return nil, errors.ErrUnauthenticated
	}

	claims, err := ValidateToken(raw)
	if err != nil {
		return nil, errors.ErrUnauthenticated
	}
	return claims, nil
}
