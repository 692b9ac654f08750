package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var orderStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

// OrderStatuses lists the known statuses in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// Order is created once at checkout. Afterwards only Status,
// PaymentStatus, PaymentID and Notes change.
type Order struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	OrderNumber        string          `json:"order_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	OwnerID            string          `json:"owner_id" gorm:"type:varchar(64);not null;index"`
	Status             OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus      PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMethod      string          `json:"payment_method" gorm:"type:varchar(50);not null"`
	PaymentID          *string         `json:"payment_id" gorm:"type:varchar(100)"`
	ShippingAddress    string          `json:"shipping_address" gorm:"not null"`
	ShippingCity       string          `json:"shipping_city" gorm:"type:varchar(100);not null"`
	ShippingPostalCode string          `json:"shipping_postal_code" gorm:"type:varchar(20);not null"`
	ShippingPhone      string          `json:"shipping_phone" gorm:"type:varchar(20)"`
	Subtotal           decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	ShippingCost       decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(12,2);not null"`
	TaxAmount          decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Notes              string          `json:"notes"`
	Items              []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem is a frozen copy of a cart line at purchase time.
type OrderItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OrderID      uint            `json:"order_id" gorm:"not null;index"`
	ProductID    uint            `json:"product_id" gorm:"not null"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"` // price at the time of order
	TotalPrice   decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderSequence backs order number allocation. Values only grow.
type OrderSequence struct {
	Name  string `gorm:"primaryKey;type:varchar(32)"`
	Value int64  `gorm:"not null"`
}
