package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Category    string           `json:"category" validate:"required,max=100"`
	Images      []string         `json:"images" validate:"omitempty,dive,url"`
	Price       *decimal.Decimal `json:"price"`
	Variants    []VariantInput   `json:"variants" validate:"omitempty,dive"`
}

// VariantInput holds the parameters for one product variant.
type VariantInput struct {
	Size  string          `json:"size" validate:"max=50"`
	Color string          `json:"color" validate:"max=50"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" validate:"gte=0"`
}

// CatalogService implements catalog reads and admin product creation.
type CatalogService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetProduct retrieves a product by id.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns a page of products.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// CreateProduct stores a new product and assigns ids to its variants.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Price == nil && len(input.Variants) == 0 {
		return nil, apperrors.InvalidInput("product needs a price or at least one variant")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	now := s.now()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Images:      input.Images,
		Price:       input.Price,
		Variants:    make([]domain.Variant, 0, len(input.Variants)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	for _, v := range input.Variants {
		if v.Price.IsNegative() {
			return nil, apperrors.InvalidInput("variant price must not be negative")
		}
		product.Variants = append(product.Variants, domain.Variant{
			ID:    uuid.New().String(),
			Size:  v.Size,
			Color: v.Color,
			Price: v.Price,
			Stock: v.Stock,
		})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.Int("variants", len(product.Variants)),
	)

	return product, nil
}
