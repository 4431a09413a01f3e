package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID uint
}

// TokenParser turns a bearer token into a user id.
type TokenParser interface {
	Parse(raw string) (uint, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(sessionKey, Session{UserID: userID})
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c.GetHeader("Authorization")); ok {
			if userID, err := tokens.Parse(raw); err == nil {
				c.Set(sessionKey, Session{UserID: userID})
			}
		}
		c.Next()
	}
}

// SessionFrom returns the session attached by RequireAuth or OptionalAuth.
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
