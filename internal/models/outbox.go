package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent is written in the same transaction as the change it
// describes and published later by the outbox poller.
type OutboxEvent struct {
	ID          uint       `gorm:"primaryKey"`
	EventID     string     `gorm:"type:varchar(36);not null;uniqueIndex"`
	AggregateID string     `gorm:"type:varchar(64);not null;index"`
	EventType   string     `gorm:"type:varchar(64);not null"`
	Payload     []byte     `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"index"`
	PublishedAt *time.Time `gorm:"index"`
}

// AllModels is the AutoMigrate set.
func AllModels() []interface{} {
	return []interface{}{
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderSequence{},
		&OutboxEvent{},
	}
}
