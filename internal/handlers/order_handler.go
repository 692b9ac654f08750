package handlers

import (
	"fmt"

	"tokoshop/internal/middleware"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orders   *services.OrderService
	payments *services.PaymentService
	locator  *services.OrderLocator
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService, locator *services.OrderLocator) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		locator:  locator,
		validate: validator.New(),
	}
}

type createOrderRequest struct {
	ShippingAddress    string `json:"shipping_address" validate:"required"`
	ShippingCity       string `json:"shipping_city" validate:"required,max=100"`
	ShippingPostalCode string `json:"shipping_postal_code" validate:"required,max=20"`
	ShippingPhone      string `json:"shipping_phone" validate:"omitempty,max=20"`
	PaymentMethod      string `json:"payment_method" validate:"required,max=50"`
	Notes              string `json:"notes"`
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

// RegisterRoutes registers the order routes with the Fiber app. adminOnly
// guards the status update.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, adminOnly fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/search", h.HandleSearchOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/payment", h.HandleProcessPayment)
	orderRoutes.Put("/:id/status", adminOnly, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the caller's orders, most recent first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order of the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID, err := idParam(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.orders.GetOrder(c.UserContext(), middleware.Principal(c), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleSearchOrder resolves ?order_number= to one of the caller's orders.
func (h *OrderHandler) HandleSearchOrder(c *fiber.Ctx) error {
	order, err := h.locator.Find(c.UserContext(), middleware.Principal(c), c.Query("order_number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder checks out the caller's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.orders.CreateOrder(c.UserContext(), middleware.Principal(c), services.CreateOrderInput{
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingPhone:      req.ShippingPhone,
		PaymentMethod:      req.PaymentMethod,
		Notes:              req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	// Return the created order with its new number and a 201 Created status
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleProcessPayment pays one of the caller's orders.
func (h *OrderHandler) HandleProcessPayment(c *fiber.Ctx) error {
	orderID, err := idParam(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.payments.ProcessPayment(c.UserContext(), middleware.Principal(c), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Payment processed successfully",
		"payment_id": result.PaymentID,
		"order":      result.Order,
	})
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := idParam(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}
	var req updateStatusRequest
	if ok, err := bindBody(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), orderID, models.OrderStatus(req.Status), req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", order.OrderNumber, order.Status),
		"order":   order,
	})
}
