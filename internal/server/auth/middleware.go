package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/cirruslabs/mediacache/internal/server/fail"
	"github.com/labstack/echo/v4"
)

// Middleware only lets through the requests that carry the shared
// secret as an HTTP basic auth password, the username is ignored.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, providedSecret, ok := c.Request().BasicAuth()
			if !ok {
				return fail.Fail(c, http.StatusUnauthorized, "failed to get basic auth")
			}

			if subtle.ConstantTimeCompare([]byte(secret), []byte(providedSecret)) != 1 {
				return fail.Fail(c, http.StatusUnauthorized, "invalid secret")
			}

			return next(c)
		}
	}
}
