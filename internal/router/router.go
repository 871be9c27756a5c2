package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/valleturismo/reservation-engine/internal/handler"    // handlers implementing the HTTP surface
    "github.com/valleturismo/reservation-engine/internal/middleware" // JWT authentication and role enforcement
)

// RegisterPublic registers routes that do not require authentication: the
// health check and the read-only availability/schedule queries.  The
// cache middleware, when supplied, is applied only to the availability
// surface so cart and reservation reads stay fresh.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, cache echo.MiddlewareFunc) {
    e.GET("/healthz", handler.Health)

    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache)
    }
    g.GET("/availability", a.Check)
    g.GET("/services/:id/schedule", a.Schedule)
}

// RegisterBooking registers the authenticated booking surface: cart,
// reservations, lines and plans.  Every route requires a valid JWT and
// one of the platform roles; finer ownership checks live in the
// services.
func RegisterBooking(e *echo.Echo, cart *handler.CartHandler, res *handler.ReservationHandler, line *handler.LineHandler, plans *handler.PlanHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(middleware.RoleTourist, middleware.RoleProvider, middleware.RoleAdmin),
    )

    // ---- Cart ----
    g.GET("/cart", cart.GetCart)
    g.POST("/cart/lines", cart.AddLine)
    g.DELETE("/cart/lines/:id", cart.RemoveLine)
    g.POST("/cart/confirm", cart.Confirm)
    g.DELETE("/cart", cart.Empty)

    // ---- Reservations ----
    g.GET("/reservations", res.List)
    g.GET("/reservations/:id", res.Get)
    g.POST("/reservations", res.Create)
    g.PUT("/reservations/:id", res.Update)
    g.DELETE("/reservations/:id", res.Delete)
    g.PUT("/reservations/:id/status", res.SetStatus)

    // ---- Lines ----
    g.GET("/lines/:id", line.Get)
    g.PUT("/lines/:id", line.UpdateNotes)
    g.PUT("/lines/:id/status", line.SetStatus)

    // ---- Plans ----
    g.POST("/plans/:id/enroll", plans.Enroll)
    g.PUT("/enrollments/:id/status", plans.SetStatus)
    g.POST("/enrollments/:id/materialize", plans.Materialize)
}
