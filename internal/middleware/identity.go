package middleware

// identity.go defines helpers shared across middleware and handlers to read
// the identity JWTAuth stored in the Echo context.

import "github.com/labstack/echo/v4"

// LoginID returns the authenticated login id, or "" for anonymous requests.
func LoginID(c echo.Context) string {
	if s, ok := c.Get(LoginIDKey).(string); ok {
		return s
	}
	return ""
}

// RegisterID returns the authenticated user's register id, or 0 when the
// token carried none.
func RegisterID(c echo.Context) uint64 {
	if id, ok := c.Get(RegisterIDKey).(uint64); ok {
		return id
	}
	return 0
}
