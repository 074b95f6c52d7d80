// Package router maps the HTTP surface onto handlers and applies the
// per-group middleware: JWT for everything past auth, the admin role gate
// for management routes, and the response cache on hot read paths.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/handler"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/middleware"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the auth endpoints. Register, login, refresh and
// logout work without a session; /me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth/v1")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterRooms wires room listing for every authenticated user and room
// management for admins. The cache middleware is optional (nil when Redis
// is unavailable) and applies only to the read routes.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/api/rooms/v1", middleware.JWTAuth(jwtSecret))

	var reads []echo.MiddlewareFunc
	if cache != nil {
		reads = append(reads, cache)
	}
	g.GET("", h.List, reads...)
	g.GET("/availability", h.Availability, reads...)
	g.GET("/:id", h.Get, reads...)
	g.GET("/:id/available", h.CheckAvailability, reads...)
	g.GET("/:id/schedule", h.Schedule, reads...)

	admin := g.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
	admin.GET("/deleted", h.ListDeleted)
	admin.PATCH("/:id/restore", h.Restore)
	admin.PATCH("/:id/status", h.UpdateStatus)
}

// RegisterUsers wires the admin-only user management endpoints.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api/users/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterBookings wires the booking endpoints. All of them require a
// session; ownership checks happen in the service.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/api/bookings/v1", middleware.JWTAuth(jwtSecret))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/cancel", h.Cancel)
}
