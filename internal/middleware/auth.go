// Package middleware provides reusable HTTP middleware: session-backed
// authentication, admin gating and Redis rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
)

// userContextKey is where Authenticate stores the public user projection.
const userContextKey = "user"

// Authenticate returns middleware that verifies the Bearer access token
// through the auth service (signature, session, freshness, user, ban) and
// injects the public user projection into the request context. Protected
// handlers read it back via CurrentUser.
func Authenticate(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"status":  http.StatusUnauthorized,
					"message": "authorization header required",
				})
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"status":  http.StatusUnauthorized,
					"message": "authorization header must be of type Bearer",
				})
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				status := apperr.HTTPStatus(apperr.KindOf(err))
				msg := "authentication failed"
				if apperr.KindOf(err) != apperr.Internal {
					msg = err.Error()
				} else {
					c.Logger().Errorf("authenticate: %v", err)
				}
				return c.JSON(status, echo.Map{"status": status, "message": msg})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser extracts the authenticated user stored by Authenticate. The
// boolean is false when the middleware did not run for this route.
func CurrentUser(c echo.Context) (model.PublicUser, bool) {
	u, ok := c.Get(userContextKey).(model.PublicUser)
	return u, ok
}
