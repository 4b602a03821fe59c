// Package router registers HTTP routes on the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterTickets registers the seat selection endpoints under /v1/tickets.
// Every route requires a valid access token and passes the per-user rate
// limiter; the purchased-seat listing is additionally served through the
// response cache, which the purchase handler clears for the event.  Login
// ids that are purely numeric are refused with 400 on every route.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/tickets", middleware.JWTAuth(jwtSecret), limiter)

	g.POST("/check", h.Check)
	g.POST("/lock", h.Lock)
	g.POST("/restore", h.Restore)
	g.POST("/cancel", h.Cancel)
	g.POST("/purchase", h.Purchase)

	g.GET("/events/:id/purchased", h.Purchased, cache)
}
