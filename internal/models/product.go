package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Cart and checkout only read it.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Title         string          `json:"title" gorm:"type:varchar(255);not null" validate:"required,min=3,max=255"`
	Description   string          `json:"description" validate:"omitempty,max=2000"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0" validate:"gte=0"`
	IsActive      bool            `json:"is_active" gorm:"not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// ProductSummary is the product shape embedded in cart and order views.
type ProductSummary struct {
	ID       uint            `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
	InStock  bool            `json:"in_stock"`
}

// Summary returns the embedded view of p.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		IsActive: p.IsActive,
		InStock:  p.InStock(),
	}
}
