package services

import (
	"context"
	"time"

	"tokoshop/internal/models"
)

// CatalogProvider supplies product snapshots by id. It fails with a
// NotFound error for unknown products.
type CatalogProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
}

// DefaultStorageTimeout bounds every storage round trip of a service call.
const DefaultStorageTimeout = 5 * time.Second

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultStorageTimeout
	}
	return context.WithTimeout(ctx, d)
}
