package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/event"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	VariantID string `json:"variant"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=10000"`
}

// UpdateQuantityInput holds the parameters for updating an item quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=10000"`
}

// ApplyCouponInput holds the coupon code to apply to the cart.
type ApplyCouponInput struct {
	Code string `json:"code" validate:"required"`
}

// CartService implements the business logic for cart operations. Every
// write is a compare-and-swap on the cart version.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	coupons  *CouponService
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	coupons *CouponService,
	producer *event.Producer,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the priced view of the user's cart. A user without a cart
// gets an empty view.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			view := domain.EmptyCartView()
			return &view, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return s.view(ctx, cart)
}

// AddItem adds quantity units of a product to the cart, creating the cart on
// first use. A line for the same product and variant is incremented.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.CartView, error) {
	if input.ProductID == "" || input.Quantity < 1 {
		return nil, apperrors.InvalidInput("productId and quantity >=1 required")
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("get product for cart: %w", err)
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	if err := cart.AddItem(uuid.New().String(), input.ProductID, input.VariantID, input.Quantity); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Quantity must not exceed %d", domain.MaxItemQuantity))
	}

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.Int("quantity", input.Quantity),
	)

	return s.view(ctx, cart)
}

// UpdateItemQuantity sets the quantity of a cart line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartView, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("Quantity >= 1 is required")
	}
	if quantity > domain.MaxItemQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Quantity must not exceed %d", domain.MaxItemQuantity))
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	item := cart.ItemByID(itemID)
	if item == nil {
		return nil, apperrors.NotFoundMsg("Cart item not found")
	}
	item.Quantity = quantity

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)

	return s.view(ctx, cart)
}

// RemoveItem removes a cart line.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	if !cart.RemoveItem(itemID) {
		return nil, apperrors.NotFoundMsg("Cart item not found")
	}

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
	)

	return s.view(ctx, cart)
}

// ApplyCoupon validates code and stores its snapshot on the cart, replacing
// any coupon applied before.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*domain.CartView, error) {
	coupon, err := s.coupons.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	snapshot := coupon.Snapshot()
	cart.Coupon = &snapshot

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon applied to cart",
		slog.String("user_id", userID),
		slog.String("code", snapshot.Code),
	)

	return s.view(ctx, cart)
}

// RemoveCoupon drops the coupon from the cart.
func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	cart.Coupon = nil

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon removed from cart", slog.String("user_id", userID))

	return s.view(ctx, cart)
}

// Clear empties the cart's items and coupon. The cart itself is kept.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	expectedVersion := cart.Version
	cart.Clear()
	cart.UpdatedAt = s.now()

	ok, err := s.carts.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return errCartConflict()
	}

	if err := s.producer.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return nil
}

func errCartConflict() error {
	return apperrors.Conflict("cart was modified concurrently, please retry")
}

// save writes the cart if nobody else has since expectedVersion was read.
func (s *CartService) save(ctx context.Context, cart *domain.Cart, expectedVersion int64) error {
	cart.UpdatedAt = s.now()

	ok, err := s.carts.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return errCartConflict()
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// getOrCreateCart returns the user's cart or a new, unsaved one.
func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	now := s.now()
	return &domain.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// view prices the cart against the live catalog.
func (s *CartService) view(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}
	view := domain.BuildCartView(cart, products)
	return &view, nil
}
