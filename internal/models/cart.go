package models

import "time"

// Cart is the single mutable basket owned by a principal.
type Cart struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	OwnerID   string     `json:"owner_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Items     []CartItem `json:"-" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem references a catalog product by id. The price is never stored
// here; it is looked up live whenever the cart is read.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CartID    uint      `json:"cart_id" gorm:"not null;uniqueIndex:idx_cart_product"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_product"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
