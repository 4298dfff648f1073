package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon applicability errors.
var (
	ErrCouponNotValidYet   = errors.New("coupon is not valid yet")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponUsageExceeded = errors.New("coupon usage limit exceeded")
)

var hundred = decimal.NewFromInt(100)

// Coupon is a discount rule identified by a unique, upper-case code.
// MinPurchaseAmount and MaxDiscountAmount are stored but do not take part in
// discount computation.
type Coupon struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit"`
	UsedCount         int              `json:"used_count"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CouponSnapshot is the copy of a coupon's discount rule stored on carts and
// orders. It does not change when the coupon document does.
type CouponSnapshot struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidDiscountType reports whether t is a known discount type.
func IsValidDiscountType(t string) bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// CheckApplicable verifies the validity window and usage limit at now. The
// active flag is checked by the lookup, not here.
func (c *Coupon) CheckApplicable(now time.Time) error {
	if now.Before(c.ValidFrom) {
		return ErrCouponNotValidYet
	}
	if now.After(c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponUsageExceeded
	}
	return nil
}

// Snapshot returns the coupon's discount rule.
func (c *Coupon) Snapshot() CouponSnapshot {
	return CouponSnapshot{
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
	}
}

// ComputeDiscount returns the discount a snapshot grants on subtotal. A nil
// snapshot or an unknown type grants nothing. The result is not capped.
func ComputeDiscount(subtotal decimal.Decimal, s *CouponSnapshot) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	switch s.DiscountType {
	case DiscountPercentage:
		return subtotal.Mul(s.DiscountValue).Div(hundred)
	case DiscountFixed:
		return s.DiscountValue
	default:
		return decimal.Zero
	}
}

// ApplyDiscount returns subtotal minus discount, floored at zero.
func ApplyDiscount(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
