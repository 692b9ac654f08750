package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

type addCartItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  *int `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:id", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

// HandleGetCart returns the caller's cart with live prices.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	view, err := h.service.Snapshot(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// HandleAddItem adds a product to the cart. Quantity defaults to 1.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addCartItemRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.service.AddItem(c.UserContext(), middleware.Principal(c), req.ProductID, quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Item added to cart",
		"cart_item": item,
	})
}

// HandleUpdateItem sets the quantity of a cart line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	itemID, err := idParam(c, "id", "cart item")
	if err != nil {
		return respondError(c, err)
	}
	var req updateCartItemRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}

	item, err := h.service.UpdateItem(c.UserContext(), middleware.Principal(c), itemID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":   "Cart item updated",
		"cart_item": item,
	})
}

// HandleRemoveItem deletes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	itemID, err := idParam(c, "id", "cart item")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.RemoveItem(c.UserContext(), middleware.Principal(c), itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart"})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), middleware.Principal(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}
