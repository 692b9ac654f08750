package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_GetOrCreateCartIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.cart.GetOrCreateCart(ctx, "alice")
	require.NoError(t, err)
	second, err := s.cart.GetOrCreateCart(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := s.cart.GetOrCreateCart(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	laptop := s.addProduct(t, "Laptop", "10.00", 5, true)

	summary, err := s.cart.AddItem(ctx, "alice", laptop.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Quantity)
	assert.Equal(t, "Laptop", summary.Product)
	assert.True(t, price("20.00").Equal(summary.TotalPrice))

	summary, err = s.cart.AddItem(ctx, "alice", laptop.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Quantity)

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.TotalItems)
	assert.True(t, price("50.00").Equal(view.TotalPrice))
}

func TestCartService_AddItemRejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	soldOut := s.addProduct(t, "Sold out", "5.00", 0, true)
	retired := s.addProduct(t, "Retired", "5.00", 10, false)

	tests := []struct {
		name      string
		productID uint
		quantity  int
		want      error
	}{
		{"zero quantity", soldOut.ID, 0, apperrors.ErrValidation},
		{"negative quantity", soldOut.ID, -2, apperrors.ErrValidation},
		{"unknown product", 9999, 1, apperrors.ErrNotFound},
		{"inactive product", retired.ID, 1, apperrors.ErrNotFound},
		{"out of stock", soldOut.ID, 1, apperrors.ErrOutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.cart.AddItem(ctx, "alice", tt.productID, tt.quantity)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_ConcurrentAddsAreNotLost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.addProduct(t, "Widget", "1.00", 100, true)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cart.AddItem(ctx, "alice", p.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, workers, view.Items[0].Quantity)
}

func TestCartService_UpdateItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.addProduct(t, "Mouse", "25.00", 50, true)

	added, err := s.cart.AddItem(ctx, "alice", p.ID, 1)
	require.NoError(t, err)

	updated, err := s.cart.UpdateItem(ctx, "alice", added.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.True(t, price("100.00").Equal(updated.TotalPrice))

	_, err = s.cart.UpdateItem(ctx, "alice", added.ID, 0)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	// Another owner cannot see the line
	_, err = s.cart.UpdateItem(ctx, "mallory", added.ID, 2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = s.cart.GetOrCreateCart(ctx, "mallory")
	require.NoError(t, err)
	_, err = s.cart.UpdateItem(ctx, "mallory", added.ID, 2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, view.TotalItems)
}

func TestCartService_RemoveItemAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := s.addProduct(t, "A", "1.00", 10, true)
	b := s.addProduct(t, "B", "2.00", 10, true)

	lineA, err := s.cart.AddItem(ctx, "alice", a.ID, 1)
	require.NoError(t, err)
	_, err = s.cart.AddItem(ctx, "alice", b.ID, 1)
	require.NoError(t, err)

	assert.True(t, errors.Is(s.cart.RemoveItem(ctx, "bob", lineA.ID), apperrors.ErrNotFound))
	require.NoError(t, s.cart.RemoveItem(ctx, "alice", lineA.ID))
	assert.True(t, errors.Is(s.cart.RemoveItem(ctx, "alice", lineA.ID), apperrors.ErrNotFound))

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, b.ID, view.Items[0].Product.ID)

	require.NoError(t, s.cart.Clear(ctx, "alice"))
	require.NoError(t, s.cart.Clear(ctx, "alice"))
	require.NoError(t, s.cart.Clear(ctx, "newcomer"))

	view, err = s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalPrice.IsZero())
}

func TestCartService_SnapshotUsesLivePricesAndFlagsMissingProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	kept := s.addProduct(t, "Kept", "10.00", 10, true)
	gone := s.addProduct(t, "Gone", "3.00", 10, true)

	_, err := s.cart.AddItem(ctx, "alice", kept.ID, 2)
	require.NoError(t, err)
	_, err = s.cart.AddItem(ctx, "alice", gone.ID, 1)
	require.NoError(t, err)

	kept.Price = price("12.50")
	require.NoError(t, s.catalog.UpdateProduct(ctx, kept))
	require.NoError(t, s.catalog.DeleteProduct(ctx, gone.ID))

	view, err := s.cart.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	assert.True(t, view.Items[0].Available)
	assert.True(t, price("25.00").Equal(view.Items[0].LineTotal))
	assert.False(t, view.Items[1].Available)
	assert.Nil(t, view.Items[1].Product)
	assert.True(t, view.Items[1].LineTotal.IsZero())

	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, price("25.00").Equal(view.TotalPrice))
}

func TestCartService_StorageTimeoutIsTransient(t *testing.T) {
	catalog := repositories.NewMockProductRepository()
	require.NoError(t, catalog.Create(context.Background(), &models.Product{Title: "Laptop", Price: price("1.00"), StockQuantity: 1, IsActive: true}))
	service := services.NewCartService(nil, catalog, stalledTx{}, time.Millisecond)

	_, err := service.AddItem(context.Background(), "alice", 1, 1)
	assert.Equal(t, apperrors.KindTransientStorage, apperrors.KindOf(err))
}

// stalledTx never gets a connection before the deadline.
type stalledTx struct{}

func (stalledTx) WithinTransaction(ctx context.Context, _ func(ctx context.Context) error) error {
	<-ctx.Done()
	return ctx.Err()
}
