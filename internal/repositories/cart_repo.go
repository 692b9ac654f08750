package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// CartRepository defines the interface for cart data access. Mutating
// calls are expected to run inside TxManager.WithinTransaction.
type CartRepository interface {
	// GetOrCreate returns the owner's cart, inserting it on first use.
	GetOrCreate(ctx context.Context, ownerID string) (*models.Cart, error)
	// LockByOwner loads the owner's cart and locks its row for the rest of
	// the transaction. It fails with NotFound if the owner has no cart.
	LockByOwner(ctx context.Context, ownerID string) (*models.Cart, error)
	// Items returns the cart's lines in insertion order.
	Items(ctx context.Context, cartID uint) ([]models.CartItem, error)
	// AddQuantity increments the (cart, product) line or creates it.
	AddQuantity(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error)
	// GetItemForOwner fails with NotFound unless itemID is in ownerID's cart.
	GetItemForOwner(ctx context.Context, ownerID string, itemID uint) (*models.CartItem, error)
	SetQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
	// DeleteItems removes exactly the listed lines of the cart.
	DeleteItems(ctx context.Context, cartID uint, itemIDs []uint) error
	ClearItems(ctx context.Context, cartID uint) error
	// Touch bumps the cart's updated_at.
	Touch(ctx context.Context, cartID uint) error
}
