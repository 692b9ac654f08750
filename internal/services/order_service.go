package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/pricing"
	"tokoshop/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateOrderInput carries the checkout form.
type CreateOrderInput struct {
	ShippingAddress    string
	ShippingCity       string
	ShippingPostalCode string
	ShippingPhone      string
	PaymentMethod      string
	Notes              string
}

func (in CreateOrderInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.ShippingAddress) == "" {
		missing = append(missing, "shipping_address")
	}
	if strings.TrimSpace(in.ShippingCity) == "" {
		missing = append(missing, "shipping_city")
	}
	if strings.TrimSpace(in.ShippingPostalCode) == "" {
		missing = append(missing, "shipping_postal_code")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return apperrors.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// OrderEvent is the payload of every order outbox event.
type OrderEvent struct {
	OrderID       uint                 `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	OwnerID       string               `json:"owner_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PaymentID     *string              `json:"payment_id,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		OwnerID:       order.OwnerID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentID:     order.PaymentID,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo CatalogProvider
	outbox      repositories.OutboxRepository
	tx          repositories.TxManager
	policy      pricing.Policy
	timeout     time.Duration
}

// NewOrderService creates a new OrderService. productRepo must read the
// live catalog: the prices it returns are frozen into orders.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo CatalogProvider,
	outbox repositories.OutboxRepository,
	tx repositories.TxManager,
	policy pricing.Policy,
	timeout time.Duration,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		outbox:      outbox,
		tx:          tx,
		policy:      policy,
		timeout:     timeout,
	}
}

// CreateOrder converts the owner's cart into an order. Reading the cart,
// pricing it, writing the order and emptying the cart happen in a single
// transaction with the cart row locked.
func (s *OrderService) CreateOrder(ctx context.Context, owner string, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.LockByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.EmptyCart("cart is empty")
			}
			return err
		}
		cartItems, err := s.cartRepo.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return apperrors.EmptyCart("cart is empty")
		}

		lines := make([]pricing.Line, 0, len(cartItems))
		orderItems := make([]models.OrderItem, 0, len(cartItems))
		consumed := make([]uint, 0, len(cartItems))
		for _, item := range cartItems {
			product, err := s.productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.NotFound("product %d in cart is no longer available", item.ProductID)
				}
				return err
			}
			line := pricing.Line{Quantity: item.Quantity, UnitPrice: product.Price}
			lines = append(lines, line)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:    product.ID,
				ProductTitle: product.Title,
				Quantity:     item.Quantity,
				UnitPrice:    product.Price, // Use price at the time of order creation
				TotalPrice:   line.Total(),
			})
			consumed = append(consumed, item.ID)
		}
		totals := s.policy.Compute(lines)

		orderID, number, err := s.orderRepo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order = &models.Order{
			ID:                 orderID,
			OrderNumber:        number,
			OwnerID:            owner,
			Status:             models.OrderStatusPending,
			PaymentStatus:      models.PaymentStatusUnpaid,
			PaymentMethod:      in.PaymentMethod,
			ShippingAddress:    in.ShippingAddress,
			ShippingCity:       in.ShippingCity,
			ShippingPostalCode: in.ShippingPostalCode,
			ShippingPhone:      in.ShippingPhone,
			Subtotal:           totals.Subtotal,
			ShippingCost:       totals.ShippingCost,
			TaxAmount:          totals.TaxAmount,
			TotalAmount:        totals.Total,
			Notes:              in.Notes,
			Items:              orderItems,
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}

		if err := s.cartRepo.DeleteItems(ctx, cart.ID, consumed); err != nil {
			return err
		}
		if err := s.cartRepo.Touch(ctx, cart.ID); err != nil {
			return err
		}
		return s.outbox.Append(ctx, order.OrderNumber, models.EventOrderCreated, newOrderEvent(order))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order for %s: %w", owner, err)
	}

	log.Printf("Order %s created for %s: %d items, total %s", order.OrderNumber, owner, len(order.Items), order.TotalAmount.StringFixed(2))
	return order, nil
}

// UpdateOrderStatus sets an order's status and optionally its notes.
// Ownership is not checked; callers must be authorized as operators.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, notes *string) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid order status: %s", status)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.UpdateStatus(ctx, id, status, notes); err != nil {
			return err
		}
		var err error
		order, err = s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.outbox.Append(ctx, order.OrderNumber, models.EventOrderStatusChanged, newOrderEvent(order))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order status for order %d: %w", id, err)
	}

	log.Printf("Order %s status set to %s", order.OrderNumber, status)
	return order, nil
}

// GetOrder returns one of the owner's orders.
func (s *OrderService) GetOrder(ctx context.Context, owner string, id uint) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orderRepo.GetForOwner(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return order, nil
}

// ListOrders returns the owner's orders, most recent first.
func (s *OrderService) ListOrders(ctx context.Context, owner string) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	orders, err := s.orderRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for %s: %w", owner, err)
	}
	return orders, nil
}
