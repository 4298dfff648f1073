package repository

import (
	"context"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/pagination"
)

// ProductFilter holds parameters for listing products.
type ProductFilter struct {
	Category string
	Page     pagination.Params
}

// OrderFilter holds parameters for listing orders. An empty UserID lists
// every order.
type OrderFilter struct {
	UserID string
	Status string
	Page   pagination.Params
}

// ProductRepository defines persistence operations for catalog products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products that exist, keyed by id. Missing ids are
	// simply absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
}

// CartRepository defines persistence operations for carts.
type CartRepository interface {
	// GetByUserID returns apperrors.ErrNotFound when the user has no cart.
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion writes the cart only if the stored version still equals
	// expectedVersion, and bumps cart.Version on success. Version 0 means the
	// cart has never been stored. It returns false when another writer won.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error)

	// RemoveCheckedOut takes the ordered quantity (keyed by line id) off each
	// line and clears the coupon in one atomic update. Lines left with no
	// quantity are dropped; quantity added after checkout read the cart stays.
	RemoveCheckedOut(ctx context.Context, userID string, ordered map[string]int) error
}

// CouponRepository defines persistence operations for coupons.
type CouponRepository interface {
	// Create returns apperrors.ErrAlreadyExists for a duplicate code.
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)
	// GetActiveByCode looks up an active coupon by its normalised code.
	GetActiveByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// List returns all coupons, newest first.
	List(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, id string) error

	// ReserveUsage increments used_count of the active coupon with code if it
	// is still below its usage limit. It reports whether a use was reserved.
	ReserveUsage(ctx context.Context, code string) (bool, error)

	// ReleaseUsage gives back a use taken by ReserveUsage for an order that
	// was never stored.
	ReleaseUsage(ctx context.Context, code string) error
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUser returns apperrors.ErrNotFound when the order does not exist
	// or belongs to another user.
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	// List returns orders newest first with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	// UpdateState persists the mutable lifecycle fields of order.
	UpdateState(ctx context.Context, order *domain.Order) error
}
