package repositories

import (
	"context"
	"encoding/json"
	"time"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxRepository stores domain events until they are published.
type OutboxRepository interface {
	// Append marshals payload and stores it as an unpublished event.
	Append(ctx context.Context, aggregateID, eventType string, payload interface{}) error
	Unpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uint) error
}

// GORMOutboxRepository is a GORM implementation of OutboxRepository.
type GORMOutboxRepository struct {
	db *gorm.DB
}

// NewGORMOutboxRepository creates a new instance of GORMOutboxRepository.
func NewGORMOutboxRepository(db *gorm.DB) *GORMOutboxRepository {
	return &GORMOutboxRepository{db: db}
}

func (r *GORMOutboxRepository) Append(ctx context.Context, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := models.OutboxEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     body,
	}
	if err := conn(ctx, r.db).Create(&event).Error; err != nil {
		return storageErr(err, "failed to append %s event", eventType)
	}
	return nil
}

func (r *GORMOutboxRepository) Unpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := conn(ctx, r.db).Where("published_at IS NULL").Order("id ASC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, storageErr(err, "failed to fetch unpublished events")
	}
	return events, nil
}

func (r *GORMOutboxRepository) MarkPublished(ctx context.Context, id uint) error {
	err := conn(ctx, r.db).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Update("published_at", time.Now()).Error
	return storageErr(err, "failed to mark event %d published", id)
}
