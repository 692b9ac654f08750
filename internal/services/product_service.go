package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// CacheInvalidator drops cached copies of a product after it changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uint) error
}

// ProductService handles business logic related to products. Customers
// only ever see active products; writes come from seeding and the admin
// product routes.
type ProductService struct {
	repo    repositories.ProductRepository
	catalog CatalogProvider
	cache   CacheInvalidator
	timeout time.Duration
}

// NewProductService creates a new ProductService. catalog may be a cache in
// front of repo; pass repo itself when there is none. cache may be nil.
func NewProductService(repo repositories.ProductRepository, catalog CatalogProvider, cache CacheInvalidator, timeout time.Duration) *ProductService {
	if catalog == nil {
		catalog = repo
	}
	return &ProductService{
		repo:    repo,
		catalog: catalog,
		cache:   cache,
		timeout: timeout,
	}
}

// GetAllProducts retrieves all active products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.repo.GetAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProductByID retrieves a single active product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product with ID %d not found", id)
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if product.Price.IsNegative() {
		return apperrors.Validation("price must not be negative")
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct updates an existing product and drops its cached copy.
// product is refreshed with the stored row.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if product.Price.IsNegative() {
		return apperrors.Validation("price must not be negative")
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	s.invalidate(ctx, product.ID)
	if stored, err := s.repo.GetByID(ctx, product.ID); err == nil {
		*product = *stored
	}
	return nil
}

// DeleteProduct deletes a product by its ID. Carts keep referencing it and
// report the line as unavailable.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SeedProducts inserts products when the catalog is empty. It returns the
// number of products created.
func (s *ProductService) SeedProducts(ctx context.Context, products []models.Product) (int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.repo.GetAll(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for i := range products {
		if err := s.repo.Create(ctx, &products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Title, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %d)", products[i].Title, products[i].ID)
		created++
	}
	return created, nil
}

func (s *ProductService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("product cache invalidate error: %v", err)
	}
}
