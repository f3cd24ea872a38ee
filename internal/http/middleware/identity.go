package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller identity when no auth layer sets one.
	HeaderUserID = "X-User-ID"

	// userIDKey is the Gin context key an auth layer stores the caller under.
	userIDKey = "userID"

	// AnonymousUser is reported when a request carries no identity.
	AnonymousUser = "anonymous"
)

// callerID returns the identity attached by upstream middleware, falling
// back to the X-User-ID header.
func callerID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
		return h, true
	}
	return "", false
}

// UserID returns the caller identity for scoping idempotency keys and rate
// limits. Requests without one share the AnonymousUser scope.
func UserID(c *gin.Context) string {
	if id, ok := callerID(c); ok {
		return id
	}
	return AnonymousUser
}
