package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	LoginIDKey    = "login_id"
	RegisterIDKey = "register_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the session service.  The token's subject is the login id and
// the "rid" claim the register id; both are stored in the request context
// under LoginIDKey and RegisterIDKey.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "notify": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "notify": "invalid token"})
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "notify": "invalid claims"})
			}
			c.Set(LoginIDKey, sub)
			// MapClaims decodes JSON numbers as float64.
			if rid, ok := claims["rid"].(float64); ok && rid > 0 {
				c.Set(RegisterIDKey, uint64(rid))
			}
			return next(c)
		}
	}
}
