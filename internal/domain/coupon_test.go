package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestIsValidDiscountType(t *testing.T) {
	assert.True(t, IsValidDiscountType(DiscountPercentage))
	assert.True(t, IsValidDiscountType(DiscountFixed))
	assert.False(t, IsValidDiscountType("PERCENTAGE"))
	assert.False(t, IsValidDiscountType(""))
}

func TestCoupon_CheckApplicable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	limit := 3

	base := func() *Coupon {
		return &Coupon{
			Code:       "SAVE10",
			ValidFrom:  now.Add(-24 * time.Hour),
			ValidUntil: now.Add(24 * time.Hour),
			Active:     true,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		want   error
	}{
		{"within window", func(c *Coupon) {}, nil},
		{"not valid yet", func(c *Coupon) { c.ValidFrom = now.Add(time.Hour) }, ErrCouponNotValidYet},
		{"expired", func(c *Coupon) { c.ValidUntil = now.Add(-time.Hour) }, ErrCouponExpired},
		{"boundaries are inclusive", func(c *Coupon) { c.ValidFrom = now; c.ValidUntil = now }, nil},
		{"under usage limit", func(c *Coupon) { c.UsageLimit = &limit; c.UsedCount = 2 }, nil},
		{"usage limit reached", func(c *Coupon) { c.UsageLimit = &limit; c.UsedCount = 3 }, ErrCouponUsageExceeded},
		{"no limit ignores used count", func(c *Coupon) { c.UsedCount = 1000 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.ErrorIs(t, c.CheckApplicable(now), tt.want)
			if tt.want == nil {
				assert.NoError(t, c.CheckApplicable(now))
			}
		})
	}
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		snapshot *CouponSnapshot
		want     string
	}{
		{"percentage", "200", &CouponSnapshot{DiscountType: DiscountPercentage, DiscountValue: dec("10")}, "20"},
		{"fractional percentage", "19.99", &CouponSnapshot{DiscountType: DiscountPercentage, DiscountValue: dec("50")}, "9.995"},
		{"fixed", "200", &CouponSnapshot{DiscountType: DiscountFixed, DiscountValue: dec("15")}, "15"},
		{"fixed larger than subtotal is not capped", "10", &CouponSnapshot{DiscountType: DiscountFixed, DiscountValue: dec("50")}, "50"},
		{"nil snapshot", "200", nil, "0"},
		{"unknown type", "200", &CouponSnapshot{DiscountType: "bogus", DiscountValue: dec("10")}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDiscount(dec(tt.subtotal), tt.snapshot).String())
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	assert.Equal(t, "180", ApplyDiscount(dec("200"), dec("20")).String())
	assert.Equal(t, "0", ApplyDiscount(dec("10"), dec("50")).String())
	assert.Equal(t, "0", ApplyDiscount(dec("10"), dec("10")).String())
}

func TestCoupon_Snapshot(t *testing.T) {
	c := &Coupon{ID: "x", Code: "SAVE10", DiscountType: DiscountFixed, DiscountValue: dec("5"), UsedCount: 7}
	assert.Equal(t, CouponSnapshot{Code: "SAVE10", DiscountType: DiscountFixed, DiscountValue: dec("5")}, c.Snapshot())
}
