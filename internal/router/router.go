// Package router maps HTTP routes onto handlers and route-group
// middleware. Public auth endpoints carry rate-limit buckets; everything
// under the authenticated groups runs the session middleware first, and
// the admin group additionally requires the admin flag.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/config"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/handler"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/middleware"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
)

// RegisterRoutes registers routes that need no authentication. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface. Register, login and
// refresh are public but throttled per client IP; me and the profile
// photo update require a live session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth *service.AuthService, limits config.RateLimits, rdb *redis.Client) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, middleware.RateLimit(limits.Register, rdb))
	g.POST("/login", a.Login, middleware.RateLimit(limits.Auth, rdb))
	g.POST("/refresh", a.Refresh, middleware.RateLimit(limits.Auth, rdb))
	g.POST("/logout", a.Logout)

	protected := e.Group("/api/auth")
	protected.Use(middleware.Authenticate(auth))
	protected.GET("/me", a.Me)
	protected.PUT("/photo", a.UpdatePhoto, middleware.RateLimit(limits.Upload, rdb))
}

// RegisterApplications registers the applicant-facing endpoints:
// submitting the verification form and reading one's own application.
func RegisterApplications(e *echo.Echo, h *handler.ApplicationHandler, auth *service.AuthService, limits config.RateLimits, rdb *redis.Client) {
	g := e.Group("/api/applications")
	g.Use(middleware.Authenticate(auth))
	g.POST("", h.Submit, middleware.RateLimit(limits.Upload, rdb))
	g.GET("/my", h.GetMy)
}

// RegisterAdmin registers the admin application surface. All routes run
// the session middleware followed by the admin gate.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, auth *service.AuthService) {
	g := e.Group("/api/admin/applications")
	g.Use(middleware.Authenticate(auth))
	g.Use(middleware.RequireAdmin())
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.Delete)
}
