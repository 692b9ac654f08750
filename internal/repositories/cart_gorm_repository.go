package repositories

import (
	"context"
	"errors"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetOrCreate relies on the unique owner index: concurrent first touches
// insert at most one row and every caller reads that row back.
func (r *GORMCartRepository) GetOrCreate(ctx context.Context, ownerID string) (*models.Cart, error) {
	db := conn(ctx, r.db)
	cart := models.Cart{OwnerID: ownerID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(&cart).Error; err != nil {
		return nil, storageErr(err, "failed to create cart for %s", ownerID)
	}

	var stored models.Cart
	if err := db.Where("owner_id = ?", ownerID).First(&stored).Error; err != nil {
		return nil, storageErr(err, "failed to load cart for %s", ownerID)
	}
	return &stored, nil
}

// LockByOwner selects the cart FOR UPDATE.
func (r *GORMCartRepository) LockByOwner(ctx context.Context, ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("cart for %s not found", ownerID)
		}
		return nil, storageErr(err, "failed to lock cart for %s", ownerID)
	}
	return &cart, nil
}

// Items returns all lines of the cart.
func (r *GORMCartRepository) Items(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := conn(ctx, r.db).Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, storageErr(err, "failed to load items of cart %d", cartID)
	}
	return items, nil
}

// AddQuantity performs the increment in SQL so no read-modify-write
// window exists between concurrent adds of the same product.
func (r *GORMCartRepository) AddQuantity(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error) {
	db := conn(ctx, r.db)
	res := db.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, storageErr(res.Error, "failed to increment cart item")
	}

	if res.RowsAffected == 0 {
		item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		if err := db.Create(&item).Error; err != nil {
			return nil, storageErr(err, "failed to create cart item")
		}
		return &item, nil
	}

	var item models.CartItem
	if err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
		return nil, storageErr(err, "failed to reload cart item")
	}
	return &item, nil
}

// GetItemForOwner scopes the lookup to the owner's cart, so foreign items
// are indistinguishable from missing ones.
func (r *GORMCartRepository) GetItemForOwner(ctx context.Context, ownerID string, itemID uint) (*models.CartItem, error) {
	db := conn(ctx, r.db)
	var item models.CartItem
	err := db.Where("id = ? AND cart_id IN (?)", itemID,
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("owner_id = ?", ownerID),
	).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("cart item %d not found", itemID)
		}
		return nil, storageErr(err, "failed to load cart item %d", itemID)
	}
	return &item, nil
}

// SetQuantity overwrites the quantity of a line.
func (r *GORMCartRepository) SetQuantity(ctx context.Context, itemID uint, quantity int) error {
	res := conn(ctx, r.db).Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if res.Error != nil {
		return storageErr(res.Error, "failed to update cart item %d", itemID)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item %d not found", itemID)
	}
	return nil
}

// DeleteItem removes one line.
func (r *GORMCartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	res := conn(ctx, r.db).Delete(&models.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return storageErr(res.Error, "failed to delete cart item %d", itemID)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item %d not found", itemID)
	}
	return nil
}

// DeleteItems removes the given lines of cartID.
func (r *GORMCartRepository) DeleteItems(ctx context.Context, cartID uint, itemIDs []uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := conn(ctx, r.db).Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&models.CartItem{}).Error
	return storageErr(err, "failed to delete items of cart %d", cartID)
}

// ClearItems removes every line of cartID.
func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID uint) error {
	err := conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
	return storageErr(err, "failed to clear cart %d", cartID)
}

// Touch sets updated_at to now.
func (r *GORMCartRepository) Touch(ctx context.Context, cartID uint) error {
	err := conn(ctx, r.db).Model(&models.Cart{}).Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
	return storageErr(err, "failed to touch cart %d", cartID)
}
