package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartItemView is a cart line annotated with live catalog data.
type CartItemView struct {
	ID        uint                   `json:"id"`
	Product   *models.ProductSummary `json:"product"`
	Quantity  int                    `json:"quantity"`
	Available bool                   `json:"available"`
	LineTotal decimal.Decimal        `json:"total_price"`
	CreatedAt time.Time              `json:"created_at"`
}

// CartView is the priced snapshot of a cart.
type CartView struct {
	ID         uint            `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Items      []CartItemView  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartItemSummary is returned by add and update.
type CartItemSummary struct {
	ID         uint            `json:"id"`
	ProductID  uint            `json:"product_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartService handles business logic related to carts.
type CartService struct {
	carts   repositories.CartRepository
	catalog CatalogProvider
	tx      repositories.TxManager
	timeout time.Duration
}

// NewCartService creates a new CartService. catalog must read live product
// rows; a cache would let stale activity, stock and prices into carts.
func NewCartService(carts repositories.CartRepository, catalog CatalogProvider, tx repositories.TxManager, timeout time.Duration) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		tx:      tx,
		timeout: timeout,
	}
}

// GetOrCreateCart returns the owner's cart, creating it on first use.
func (s *CartService) GetOrCreateCart(ctx context.Context, owner string) (*models.Cart, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for %s: %w", owner, err)
	}
	return cart, nil
}

// AddItem adds quantity units of a product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, owner string, productID uint, quantity int) (*CartItemSummary, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product with ID %d not found", productID)
	}
	if !product.InStock() {
		return nil, apperrors.OutOfStock("product %q is out of stock", product.Title)
	}

	var item *models.CartItem
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.carts.GetOrCreate(ctx, owner); err != nil {
			return err
		}
		cart, err := s.carts.LockByOwner(ctx, owner)
		if err != nil {
			return err
		}
		item, err = s.carts.AddQuantity(ctx, cart.ID, productID, quantity)
		if err != nil {
			return err
		}
		return s.carts.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product %d to cart: %w", productID, err)
	}

	log.Printf("Cart of %s: product %d quantity now %d", owner, productID, item.Quantity)
	return summarize(item, product), nil
}

// UpdateItem sets the quantity of a line in the owner's cart.
func (s *CartService) UpdateItem(ctx context.Context, owner string, itemID uint, quantity int) (*CartItemSummary, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var item *models.CartItem
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.LockByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("cart item %d not found", itemID)
			}
			return err
		}
		item, err = s.carts.GetItemForOwner(ctx, owner, itemID)
		if err != nil {
			return err
		}
		if err := s.carts.SetQuantity(ctx, item.ID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		return s.carts.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item %d: %w", itemID, err)
	}

	product, err := s.catalog.GetByID(ctx, item.ProductID)
	if err != nil {
		log.Printf("Could not price cart item %d after update: %v", item.ID, err)
		product = nil
	}
	return summarize(item, product), nil
}

// RemoveItem deletes a line from the owner's cart.
func (s *CartService) RemoveItem(ctx context.Context, owner string, itemID uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.LockByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("cart item %d not found", itemID)
			}
			return err
		}
		item, err := s.carts.GetItemForOwner(ctx, owner, itemID)
		if err != nil {
			return err
		}
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, cart.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
	}
	return nil
}

// Clear empties the owner's cart. It succeeds on an empty or new cart.
func (s *CartService) Clear(ctx context.Context, owner string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.carts.GetOrCreate(ctx, owner); err != nil {
			return err
		}
		cart, err := s.carts.LockByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, cart.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to clear cart of %s: %w", owner, err)
	}
	return nil
}

// Snapshot returns the cart with live prices and aggregate totals.
func (s *CartService) Snapshot(ctx context.Context, owner string) (*CartView, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for %s: %w", owner, err)
	}
	items, err := s.carts.Items(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items for %s: %w", owner, err)
	}

	view := &CartView{
		ID:         cart.ID,
		OwnerID:    cart.OwnerID,
		Items:      make([]CartItemView, 0, len(items)),
		TotalPrice: decimal.Zero,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, item := range items {
		line := CartItemView{
			ID:        item.ID,
			Quantity:  item.Quantity,
			LineTotal: decimal.Zero,
			CreatedAt: item.CreatedAt,
		}
		product, err := s.catalog.GetByID(ctx, item.ProductID)
		switch {
		case err == nil:
			summary := product.Summary()
			line.Product = &summary
			line.Available = true
			line.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		case errors.Is(err, apperrors.ErrNotFound):
			log.Printf("Cart of %s references missing product %d", owner, item.ProductID)
		default:
			return nil, fmt.Errorf("failed to price cart item %d: %w", item.ID, err)
		}
		view.Items = append(view.Items, line)
		view.TotalItems += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.LineTotal)
	}
	return view, nil
}

func summarize(item *models.CartItem, product *models.Product) *CartItemSummary {
	summary := &CartItemSummary{
		ID:         item.ID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		TotalPrice: decimal.Zero,
	}
	if product != nil {
		summary.Product = product.Title
		summary.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return summary
}
