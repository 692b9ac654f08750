package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// NextOrderNumber allocates a fresh, never reused order id together
	// with its number ORD-<id>. Create must store the order under that id.
	NextOrderNumber(ctx context.Context) (uint, string, error)
	// Create persists the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetForOwner(ctx context.Context, ownerID string, id uint) (*models.Order, error)
	// LockForOwner is GetForOwner with a row lock on the order.
	LockForOwner(ctx context.Context, ownerID string, id uint) (*models.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Order, error)
	FindByNumber(ctx context.Context, ownerID, orderNumber string) (*models.Order, error)
	// FindFirstByNumberFragment returns the owner's earliest order whose
	// number contains any fragment, ignoring case.
	FindFirstByNumberFragment(ctx context.Context, ownerID string, fragments ...string) (*models.Order, error)
	// MarkPaid flips an unpaid order to paid/processing. It reports false
	// when the order was already paid.
	MarkPaid(ctx context.Context, id uint, paymentID string) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, notes *string) error
}
