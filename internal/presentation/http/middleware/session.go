// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/security"
)

// SessionCookie carries the signed session token.
const SessionCookie = "cmi_session"

const (
	authenticatedKey = "authenticated"
	sessionKey       = "session"
)

// SessionResolver turns a session token into a session.
type SessionResolver interface {
	Resolve(token string) (*security.Session, bool)
}

// SessionMiddleware resolves the session cookie on every request. Requests
// without a valid token continue as anonymous.
func SessionMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(authenticatedKey, false)

		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			if session, ok := resolver.Resolve(token); ok {
				c.Set(authenticatedKey, true)
				c.Set(sessionKey, session)
			}
		}

		c.Next()
	}
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(authenticatedKey)
}

// GetSession retrieves the session from gin context
func GetSession(c *gin.Context) (*security.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	session, ok := value.(*security.Session)
	return session, ok
}
