// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/handler"
    "github.com/iliyamo/theater-box-office/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
    Auth    *handler.AuthHandler
    Venues  *handler.VenueHandler
    Shows   *handler.ShowHandler
    Tickets *handler.TicketHandler
    Cache   *middleware.SeatMapCache
}

// Register wires all routes of the service onto the Echo instance.
// Unauthenticated routes are the health check and login; everything
// else requires a valid staff access token, and the venue/show/category
// management endpoints additionally require the admin role.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
    e.GET("/healthz", handler.Health)
    e.POST("/v1/auth/login", h.Auth.Login)

    // Routes for any authenticated staff member.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("admin", "agent", "usher"))

    auth.GET("/me", h.Auth.Me)

    auth.GET("/venues", h.Venues.List)
    auth.GET("/venues/:id", h.Venues.Get)
    auth.GET("/venues/:id/seat-map", h.Venues.SeatMap)

    auth.GET("/shows", h.Shows.List)
    auth.GET("/shows/:id", h.Shows.Get)
    auth.GET("/shows/:id/categories", h.Shows.ListCategories)
    auth.GET("/shows/:id/tickets", h.Shows.ListTickets)
    auth.GET("/shows/:id/seat-map", h.Shows.SeatMap, h.Cache.Middleware())

    auth.GET("/tickets/:id", h.Tickets.Get)
    auth.PUT("/tickets/:id/reserve", h.Tickets.Reserve)
    auth.PUT("/tickets/:id/sell", h.Tickets.Sell)
    auth.PUT("/tickets/:id/release", h.Tickets.Release)
    auth.PUT("/tickets/:id/cancel", h.Tickets.Cancel)
    auth.PUT("/tickets/:id/category", h.Tickets.ChangeCategory)
    auth.PUT("/tickets/bulk-reserve", h.Tickets.BulkReserve)
    auth.PUT("/tickets/bulk-sell", h.Tickets.BulkSell)
    auth.POST("/tickets/checkin", h.Tickets.CheckIn)

    // Management routes restricted to admins.
    admin := e.Group("/v1")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole("admin"))

    admin.POST("/venues", h.Venues.Create)
    admin.POST("/shows", h.Shows.Create)
    admin.PATCH("/shows/:id/status", h.Shows.UpdateStatus)
    admin.POST("/shows/:id/categories", h.Shows.CreateCategory)
    admin.PUT("/shows/:id/categories/:catId", h.Shows.UpdateCategory)
    admin.POST("/shows/:id/initialize-tickets", h.Shows.InitializeTickets)
    admin.PUT("/tickets/:id/reset", h.Tickets.Reset)
}
