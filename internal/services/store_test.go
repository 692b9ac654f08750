package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tokoshop/internal/models"
	"tokoshop/internal/pricing"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testStore wires every service against a private in-memory SQLite database.
type testStore struct {
	db       *gorm.DB
	products *repositories.GORMProductRepository
	orders   *repositories.GORMOrderRepository
	carts    *repositories.GORMCartRepository
	outbox   *repositories.GORMOutboxRepository

	catalog  *services.ProductService
	cart     *services.CartService
	ledger   *services.OrderService
	payments *services.PaymentService
	locator  *services.OrderLocator
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repositories.OpenDatabase("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db, 1000))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := &testStore{
		db:       db,
		products: repositories.NewGORMProductRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		carts:    repositories.NewGORMCartRepository(db),
		outbox:   repositories.NewGORMOutboxRepository(db),
	}
	tx := repositories.NewGORMTxManager(db)
	timeout := 5 * time.Second

	s.catalog = services.NewProductService(s.products, nil, nil, timeout)
	s.cart = services.NewCartService(s.carts, s.products, tx, timeout)
	s.ledger = services.NewOrderService(s.orders, s.carts, s.products, s.outbox, tx, pricing.DefaultPolicy(), timeout)
	s.payments = services.NewPaymentService(s.orders, s.outbox, tx, timeout)
	s.locator = services.NewOrderLocator(s.orders, timeout)
	return s
}

func (s *testStore) addProduct(t *testing.T, title, unitPrice string, stock int, active bool) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: price(unitPrice), StockQuantity: stock, IsActive: active}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p
}

// checkout fills owner's cart with quantity units of p and places an order.
func (s *testStore) checkout(t *testing.T, owner string, p *models.Product, quantity int) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := s.cart.AddItem(ctx, owner, p.ID, quantity)
	require.NoError(t, err)
	order, err := s.ledger.CreateOrder(ctx, owner, validOrderInput())
	require.NoError(t, err)
	return order
}

func validOrderInput() services.CreateOrderInput {
	return services.CreateOrderInput{
		ShippingAddress:    "Jl. Merdeka 1",
		ShippingCity:       "Bandung",
		ShippingPostalCode: "40111",
		ShippingPhone:      "0812000000",
		PaymentMethod:      "card",
	}
}

func (s *testStore) events(t *testing.T) []models.OutboxEvent {
	t.Helper()
	events, err := s.outbox.Unpublished(context.Background(), 100)
	require.NoError(t, err)
	return events
}
