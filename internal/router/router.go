// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require any session context.
// Currently it exposes only a health check, which load balancers and
// monitoring systems can use to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterSession registers the endpoints that establish a role context:
// member login and guest session issuance. Neither requires an existing
// token, so no middleware is applied here.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler) {
	g := e.Group("/v1")
	g.POST("/auth/register", s.Register)
	g.POST("/auth/login", s.Login)
	g.POST("/session/guest", s.GuestSession)
}

// RegisterBooking registers the seat-config and booking endpoints. All of
// them run behind the RoleContext middleware, which decodes the bearer
// token (if any) into a role context without rejecting the request; the
// booking engine decides whether the caller is authorized.
//
// GET /v1/seat-config is cacheable and rate limited per IP+route.
// POST /v1/bookings is rate limited per caller.
// GET /v1/bookings is restricted to members.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.RoleContext(cfg.JWTSecret))

	rl := config.LoadRateLimitConfig()
	cc := config.LoadCacheConfig()
	g.Use(middleware.NewTokenBucket(rl, rdb))

	g.GET("/seat-config", b.SeatConfig, middleware.NewRedisCache(cc, rdb))
	g.POST("/bookings", b.CreateBooking)
	g.GET("/bookings", b.ListBookings, middleware.RequireRole(booking.RoleMember))
}
