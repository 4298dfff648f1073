package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/event"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Code              string           `json:"code" validate:"required,max=50"`
	Description       string           `json:"description" validate:"max=500"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit" validate:"omitempty,gte=1"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until" validate:"required"`
	Active            *bool            `json:"active"`
}

// UpdateCouponInput holds a partial coupon update. Nil fields are left as
// they are.
type UpdateCouponInput struct {
	Code              *string          `json:"code" validate:"omitempty,max=50"`
	Description       *string          `json:"description" validate:"omitempty,max=500"`
	DiscountType      *string          `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit" validate:"omitempty,gte=1"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until"`
	Active            *bool            `json:"active"`
}

// CouponService implements coupon validation and admin coupon management.
type CouponService struct {
	repo     repository.CouponRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(repo repository.CouponRepository, producer *event.Producer, logger *slog.Logger) *CouponService {
	return &CouponService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Validate looks up an active coupon by code and checks its validity window
// and usage limit.
func (s *CouponService) Validate(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, apperrors.InvalidInput("Coupon code is required")
	}

	coupon, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			couponValidationsTotal.WithLabelValues(couponResultNotFound).Inc()
		}
		return nil, fmt.Errorf("validate coupon: %w", err)
	}

	if err := coupon.CheckApplicable(s.now()); err != nil {
		if errors.Is(err, domain.ErrCouponUsageExceeded) {
			couponValidationsTotal.WithLabelValues(couponResultUsageExceeded).Inc()
			return nil, apperrors.Rejected("COUPON_USAGE_EXCEEDED", "Coupon usage limit exceeded")
		}
		couponValidationsTotal.WithLabelValues(couponResultNotValid).Inc()
		return nil, apperrors.Rejected("COUPON_NOT_VALID", "Coupon is not valid at this time")
	}

	couponValidationsTotal.WithLabelValues(couponResultValid).Inc()
	return coupon, nil
}

// GetCoupon retrieves a coupon by id.
func (s *CouponService) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return coupon, nil
}

// ListCoupons returns every coupon, newest first.
func (s *CouponService) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// CreateCoupon stores a new coupon. The code is normalised and must be
// unique.
func (s *CouponService) CreateCoupon(ctx context.Context, input CreateCouponInput) (*domain.Coupon, error) {
	code := domain.NormalizeCode(input.Code)
	if code == "" {
		return nil, apperrors.InvalidInput("Required fields missing")
	}
	if !domain.IsValidDiscountType(input.DiscountType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid discount type %q", input.DiscountType))
	}
	if !input.DiscountValue.IsPositive() {
		return nil, apperrors.InvalidInput("discount value must be positive")
	}
	if input.ValidUntil == nil {
		return nil, apperrors.InvalidInput("Required fields missing")
	}

	now := s.now()
	coupon := &domain.Coupon{
		ID:                uuid.New().String(),
		Code:              code,
		Description:       input.Description,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinPurchaseAmount: decimal.Zero,
		MaxDiscountAmount: input.MaxDiscountAmount,
		UsageLimit:        input.UsageLimit,
		ValidFrom:         now,
		ValidUntil:        input.ValidUntil.UTC(),
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.MinPurchaseAmount != nil {
		coupon.MinPurchaseAmount = *input.MinPurchaseAmount
	}
	if input.ValidFrom != nil {
		coupon.ValidFrom = input.ValidFrom.UTC()
	}
	if input.Active != nil {
		coupon.Active = *input.Active
	}
	if err := checkCouponAmounts(coupon); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	if err := s.producer.PublishCouponCreated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.created event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)

	return coupon, nil
}

// UpdateCoupon applies a partial update to an existing coupon.
func (s *CouponService) UpdateCoupon(ctx context.Context, id string, input UpdateCouponInput) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}

	if input.Code != nil {
		code := domain.NormalizeCode(*input.Code)
		if code == "" {
			return nil, apperrors.InvalidInput("coupon code must not be empty")
		}
		coupon.Code = code
	}
	if input.Description != nil {
		coupon.Description = *input.Description
	}
	if input.DiscountType != nil {
		if !domain.IsValidDiscountType(*input.DiscountType) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid discount type %q", *input.DiscountType))
		}
		coupon.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		if !input.DiscountValue.IsPositive() {
			return nil, apperrors.InvalidInput("discount value must be positive")
		}
		coupon.DiscountValue = *input.DiscountValue
	}
	if input.MinPurchaseAmount != nil {
		coupon.MinPurchaseAmount = *input.MinPurchaseAmount
	}
	if input.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = input.MaxDiscountAmount
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	if input.ValidFrom != nil {
		coupon.ValidFrom = input.ValidFrom.UTC()
	}
	if input.ValidUntil != nil {
		coupon.ValidUntil = input.ValidUntil.UTC()
	}
	if input.Active != nil {
		coupon.Active = *input.Active
	}
	if err := checkCouponAmounts(coupon); err != nil {
		return nil, err
	}
	coupon.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	if err := s.producer.PublishCouponUpdated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.updated event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon updated",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)

	return coupon, nil
}

// DeleteCoupon removes a coupon. Carts and orders keep their snapshots.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	if err := s.producer.PublishCouponDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.deleted event",
			slog.String("coupon_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon deleted", slog.String("coupon_id", id))
	return nil
}

func checkCouponAmounts(c *domain.Coupon) error {
	if c.MinPurchaseAmount.IsNegative() {
		return apperrors.InvalidInput("min purchase amount must not be negative")
	}
	if c.MaxDiscountAmount != nil && c.MaxDiscountAmount.IsNegative() {
		return apperrors.InvalidInput("max discount amount must not be negative")
	}
	if !c.ValidUntil.After(c.ValidFrom) {
		return apperrors.InvalidInput("valid_until must be after valid_from")
	}
	return nil
}
