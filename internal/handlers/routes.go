package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles the route groups served under /api/v1. Auth is optional.
type Handlers struct {
	Cart     *CartHandler
	Orders   *OrderHandler
	Products *ProductHandler
	Auth     *AuthHandler
}

// RegisterAPI mounts /api/v1. Everything except the token endpoint
// requires a valid bearer token.
func RegisterAPI(app *fiber.App, authService *services.AuthService, h Handlers) {
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	if h.Auth != nil {
		h.Auth.RegisterRoutes(apiV1)
	}

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	adminOnly := middleware.AdminOnly()
	h.Products.RegisterRoutes(protected, adminOnly)
	h.Cart.RegisterRoutes(protected)
	h.Orders.RegisterRoutes(protected, adminOnly)
}
