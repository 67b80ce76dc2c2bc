package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin enforces that the authenticated user carries the admin
// flag. It assumes Authenticate already ran on the route group; a missing
// user is treated the same as a missing privilege.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !u.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{
					"status":  http.StatusForbidden,
					"message": "admin privileges required",
				})
			}
			return next(c)
		}
	}
}
