package security

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards event administration endpoints. The bearer token is
// compared against a bcrypt hash from configuration; an empty hash disables
// the admin surface entirely.
func AdminAuth(tokenHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenHash == "" {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error": "Admin API is not configured",
				})
			}

			auth := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Missing admin token",
				})
			}

			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Invalid admin token",
				})
			}

			return next(c)
		}
	}
}
