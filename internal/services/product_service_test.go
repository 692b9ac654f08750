package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockInvalidator records cache invalidations.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, time.Second)

	expectedProducts := []models.Product{
		{ID: 1, Title: "Product A", Price: price("10.00"), StockQuantity: 100, IsActive: true},
		{ID: 2, Title: "Product B", Price: price("20.00"), StockQuantity: 50, IsActive: true},
	}

	mockRepo.On("GetAll", mock.Anything, true).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(context.Background())

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, time.Second)
	ctx := context.Background()

	expectedProduct := &models.Product{ID: 1, Title: "Product A", Price: price("10.00"), StockQuantity: 100, IsActive: true}

	// Test successful retrieval
	mockRepo.On("GetByID", mock.Anything, uint(1)).Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	mockRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, apperrors.NotFound("product with ID 99 not found")).Once()
	product, err = service.GetProductByID(ctx, 99)
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Inactive products are hidden
	mockRepo.On("GetByID", mock.Anything, uint(3)).Return(&models.Product{ID: 3, Title: "Hidden", IsActive: false}, nil).Once()
	product, err = service.GetProductByID(ctx, 3)
	assert.Nil(t, product)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, time.Second)
	ctx := context.Background()

	newProduct := &models.Product{Title: "New Product", Price: price("50.00"), StockQuantity: 20, IsActive: true}

	// Test successful creation
	mockRepo.On("Create", mock.Anything, newProduct).Return(nil).Once()
	err := service.CreateProduct(ctx, newProduct)
	assert.NoError(t, err)

	// Test creation failure (e.g., database error)
	mockRepo.On("Create", mock.Anything, newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(ctx, newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)

	// Negative prices never reach the repository
	err = service.CreateProduct(ctx, &models.Product{Title: "Broken", Price: price("-1")})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestProductService_UpdateProductInvalidatesCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	cache := new(MockInvalidator)
	service := services.NewProductService(mockRepo, nil, cache, time.Second)
	ctx := context.Background()

	updatedProduct := &models.Product{ID: 1, Title: "Product A Updated", Price: price("12.00"), StockQuantity: 95, IsActive: true}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stored := &models.Product{ID: 1, Title: "Product A Updated", Price: price("12.00"), StockQuantity: 95, IsActive: true, CreatedAt: created}

	mockRepo.On("Update", mock.Anything, updatedProduct).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, uint(1)).Return(nil).Once()
	mockRepo.On("GetByID", mock.Anything, uint(1)).Return(stored, nil).Once()
	err := service.UpdateProduct(ctx, updatedProduct)
	assert.NoError(t, err)
	assert.Equal(t, created, updatedProduct.CreatedAt)

	// Test update failure (e.g., product not found in repo)
	missing := &models.Product{ID: 99, Title: "NonExistent", Price: price("1.00")}
	mockRepo.On("Update", mock.Anything, missing).Return(apperrors.NotFound("product with ID 99 not found for update")).Once()
	err = service.UpdateProduct(ctx, missing)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for update")

	mockRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	cache := new(MockInvalidator)
	service := services.NewProductService(mockRepo, nil, cache, time.Second)
	ctx := context.Background()

	// Test successful deletion; a failing cache does not fail the call
	mockRepo.On("Delete", mock.Anything, uint(1)).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, uint(1)).Return(fmt.Errorf("redis down")).Once()
	err := service.DeleteProduct(ctx, 1)
	assert.NoError(t, err)

	// Test deletion failure (e.g., product not found)
	mockRepo.On("Delete", mock.Anything, uint(99)).Return(apperrors.NotFound("product with ID 99 not found for deletion")).Once()
	err = service.DeleteProduct(ctx, 99)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for deletion")

	mockRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestProductService_SeedProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, time.Second)
	ctx := context.Background()

	seed := []models.Product{
		{Title: "Laptop", Price: price("1200.00"), StockQuantity: 10, IsActive: true},
		{Title: "Mouse", Price: price("25.00"), StockQuantity: 50, IsActive: true},
	}

	mockRepo.On("GetAll", mock.Anything, false).Return([]models.Product{}, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil).Twice()
	created, err := service.SeedProducts(ctx, seed)
	assert.NoError(t, err)
	assert.Equal(t, 2, created)

	// A non-empty catalog is left alone
	mockRepo.On("GetAll", mock.Anything, false).Return([]models.Product{{ID: 1}}, nil).Once()
	created, err = service.SeedProducts(ctx, seed)
	assert.NoError(t, err)
	assert.Equal(t, 0, created)
	mockRepo.AssertExpectations(t)
}
