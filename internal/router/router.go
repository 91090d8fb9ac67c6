package router // router registers the HTTP routes of the booking API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storage-booking/internal/config"
	"github.com/iliyamo/storage-booking/internal/handler"
	"github.com/iliyamo/storage-booking/internal/middleware"
	"github.com/iliyamo/storage-booking/internal/utils"
)

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterPublic registers the catalog, booking and checkout endpoints.
// The plan list is served through the Redis response cache; booking and
// checkout writes go through the token-bucket rate limiter.
func RegisterPublic(e *echo.Echo, p *handler.PlanHandler, b *handler.BookingHandler, co *handler.CheckoutHandler,
	cache config.CacheConfig, rl config.RateLimitConfig, rdb *redis.Client) {
	api := e.Group("/api")
	api.GET("/storage-plans", p.ListPlans, middleware.NewRedisCache(cache, rdb))
	api.POST("/quote", p.Quote)

	limited := api.Group("", middleware.NewTokenBucket(rl, rdb))
	limited.POST("/booking/create", b.CreateBooking)
	limited.POST("/checkout/create-payment-intent", co.CreatePaymentIntent)
	limited.POST("/checkout/confirm-payment", co.ConfirmPayment)

	api.GET("/bookings/:id", b.GetBooking)
	api.GET("/bookings/:id/invoice", b.Invoice)
	api.GET("/checkout/payments/:id", co.PaymentStatus)
}

// RegisterAdmin registers the admin console.  Login is rate limited and
// open; everything else requires an ADMIN session token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	e.POST("/api/admin/auth", a.Login, middleware.NewTokenBucket(rl, rdb))

	g := e.Group("/api/admin",
		middleware.AdminAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.GET("/storage-options", a.ListPlans)
	g.POST("/storage-options", a.CreatePlan)
	g.PUT("/storage-options", a.UpdatePlan)
	g.DELETE("/storage-options", a.DeletePlan)

	g.GET("/bookings", a.ListBookings)
	g.PATCH("/bookings/:id/status", a.UpdateBookingStatus)
	g.GET("/users", a.ListUsers)
	g.GET("/payments", a.ListPayments)
	g.GET("/stats", a.Stats)
}
