package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

type cartFixture struct {
	carts    *mockCartRepository
	products *mockProductRepository
	coupons  *mockCouponRepository
	svc      *CartService
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    new(mockCartRepository),
		products: new(mockProductRepository),
		coupons:  new(mockCouponRepository),
	}
	coupons := newTestCouponService(f.coupons)
	f.svc = NewCartService(f.carts, f.products, coupons, newTestProducer(), newTestLogger())
	f.svc.now = fixedClock()
	return f
}

// expectPricing lets the view lookup return the shared catalog.
func (f *cartFixture) expectPricing() {
	f.products.On("GetByIDs", mock.Anything, mock.Anything).Return(catalog(), nil)
}

func storedCart(userID string) *domain.Cart {
	return &domain.Cart{
		ID:     "cart-1",
		UserID: userID,
		Items: []domain.CartItem{
			{ID: "item-1", ProductID: "prod-shirt", VariantID: "var-m", Quantity: 2},
		},
		Version:   3,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func TestGetCart_NoCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.carts.On("GetByUserID", ctx, "user-1").Return(nil, notFound("Cart not found"))

	view, err := f.svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Coupon)
	assert.True(t, view.Subtotal.IsZero())
	assert.True(t, view.DiscountAmount.IsZero())
	assert.True(t, view.Total.IsZero())
	f.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestGetCart_PercentageCoupon(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	// 5 mugs at 20 = 200, SAVE10 takes 20 off.
	cart := &domain.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items: []domain.CartItem{
			{ID: "item-1", ProductID: "prod-mug", Quantity: 5},
		},
		Coupon:  &domain.CouponSnapshot{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: dec("10")},
		Version: 1,
	}
	f.carts.On("GetByUserID", ctx, "user-1").Return(cart, nil)

	view, err := f.svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Mug", view.Items[0].Product.Name)
	assert.Nil(t, view.Items[0].Variant)
	assert.True(t, view.Subtotal.Equal(dec("200")))
	assert.True(t, view.DiscountAmount.Equal(dec("20")))
	assert.True(t, view.Total.Equal(dec("180")))
}

func TestAddItem_NewCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.products.On("GetByID", ctx, "prod-shirt").Return(catalog()["prod-shirt"], nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(nil, notFound("Cart not found"))
	f.carts.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.UserID == "user-1" && len(c.Items) == 1 && c.Items[0].Quantity == 2
	}), int64(0)).Return(true, nil)

	view, err := f.svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "prod-shirt",
		VariantID: "var-m",
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.NotEmpty(t, view.Items[0].ID)
	require.NotNil(t, view.Items[0].Variant)
	assert.Equal(t, "M", view.Items[0].Variant.Size)
	assert.True(t, view.Items[0].UnitPrice.Equal(dec("40")))
	assert.True(t, view.Total.Equal(dec("80")))
	f.carts.AssertExpectations(t)
}

func TestAddItem_MergeExisting(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.products.On("GetByID", ctx, "prod-shirt").Return(catalog()["prod-shirt"], nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), int64(3)).Return(true, nil)

	view, err := f.svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "prod-shirt",
		VariantID: "var-m",
		Quantity:  3,
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "item-1", view.Items[0].ID)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.True(t, view.Subtotal.Equal(dec("200")))
}

func TestAddItem_MergeOverLimitRejected(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.products.On("GetByID", ctx, "prod-shirt").Return(catalog()["prod-shirt"], nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)

	_, err := f.svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "prod-shirt",
		VariantID: "var-m",
		Quantity:  domain.MaxItemQuantity - 1,
	})
	appErr := assertAppError(t, err, "INVALID_INPUT")
	assert.Equal(t, "Quantity must not exceed 10000", appErr.Message)
	f.carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItem_DifferentVariant(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.products.On("GetByID", ctx, "prod-shirt").Return(catalog()["prod-shirt"], nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), int64(3)).Return(true, nil)

	view, err := f.svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "prod-shirt",
		VariantID: "var-l",
		Quantity:  1,
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	// 2 x 40 + 1 x 45
	assert.True(t, view.Subtotal.Equal(dec("125")))
}

func TestAddItem_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input AddItemInput
	}{
		{name: "zero quantity", input: AddItemInput{ProductID: "prod-mug", Quantity: 0}},
		{name: "negative quantity", input: AddItemInput{ProductID: "prod-mug", Quantity: -1}},
		{name: "missing product", input: AddItemInput{Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture()

			_, err := f.svc.AddItem(context.Background(), "user-1", tt.input)
			appErr := assertAppError(t, err, "INVALID_INPUT")
			assert.Equal(t, "productId and quantity >=1 required", appErr.Message)
			f.carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.products.On("GetByID", ctx, "ghost").Return(nil, notFound("Product not found"))

	_, err := f.svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "ghost", Quantity: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.carts.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestAddItem_ConcurrentModification(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.products.On("GetByID", ctx, "prod-mug").Return(catalog()["prod-mug"], nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), int64(3)).Return(false, nil)

	_, err := f.svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "prod-mug", Quantity: 1})
	assertAppError(t, err, "CONFLICT")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

func TestUpdateItemQuantity_Success(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), int64(3)).Return(true, nil)

	view, err := f.svc.UpdateItemQuantity(ctx, "user-1", "item-1", 4)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.True(t, view.Total.Equal(dec("160")))
}

func TestUpdateItemQuantity_ItemNotFound(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)

	_, err := f.svc.UpdateItemQuantity(ctx, "user-1", "nope", 4)
	appErr := assertAppError(t, err, "NOT_FOUND")
	assert.Equal(t, "Cart item not found", appErr.Message)
	f.carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateItemQuantity_CartNotFound(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.carts.On("GetByUserID", ctx, "user-1").Return(nil, notFound("Cart not found"))

	_, err := f.svc.UpdateItemQuantity(ctx, "user-1", "item-1", 4)
	appErr := assertAppError(t, err, "NOT_FOUND")
	assert.Equal(t, "Cart not found", appErr.Message)
}

func TestUpdateItemQuantity_ZeroRejected(t *testing.T) {
	f := newCartFixture()

	_, err := f.svc.UpdateItemQuantity(context.Background(), "user-1", "item-1", 0)
	appErr := assertAppError(t, err, "INVALID_INPUT")
	assert.Equal(t, "Quantity >= 1 is required", appErr.Message)
	f.carts.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestUpdateItemQuantity_OverLimitRejected(t *testing.T) {
	f := newCartFixture()

	_, err := f.svc.UpdateItemQuantity(context.Background(), "user-1", "item-1", domain.MaxItemQuantity+1)
	appErr := assertAppError(t, err, "INVALID_INPUT")
	assert.Equal(t, "Quantity must not exceed 10000", appErr.Message)
	f.carts.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestRemoveItem_Success(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0
	}), int64(3)).Return(true, nil)

	view, err := f.svc.RemoveItem(ctx, "user-1", "item-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestRemoveItem_NotFound(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)

	_, err := f.svc.RemoveItem(ctx, "user-1", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplyCoupon_Success(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	f.coupons.On("GetActiveByCode", ctx, "SAVE10").Return(activeCoupon(), nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(storedCart("user-1"), nil)
	f.carts.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Coupon != nil && c.Coupon.Code == "SAVE10"
	}), int64(3)).Return(true, nil)

	view, err := f.svc.ApplyCoupon(ctx, "user-1", "save10")
	require.NoError(t, err)
	require.NotNil(t, view.Coupon)
	assert.Equal(t, "SAVE10", view.Coupon.Code)
	// 2 x 40 = 80, 10% off.
	assert.True(t, view.DiscountAmount.Equal(dec("8")))
	assert.True(t, view.Total.Equal(dec("72")))
}

func TestApplyCoupon_Invalid(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	expired := activeCoupon()
	expired.ValidUntil = testNow.Add(-1)
	f.coupons.On("GetActiveByCode", ctx, "SAVE10").Return(expired, nil)

	_, err := f.svc.ApplyCoupon(ctx, "user-1", "SAVE10")
	assertAppError(t, err, "COUPON_NOT_VALID")
	f.carts.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestApplyCoupon_NoCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.coupons.On("GetActiveByCode", ctx, "SAVE10").Return(activeCoupon(), nil)
	f.carts.On("GetByUserID", ctx, "user-1").Return(nil, notFound("Cart not found"))

	_, err := f.svc.ApplyCoupon(ctx, "user-1", "SAVE10")
	appErr := assertAppError(t, err, "NOT_FOUND")
	assert.Equal(t, "Cart not found", appErr.Message)
}

func TestRemoveCoupon(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.expectPricing()

	cart := storedCart("user-1")
	cart.Coupon = &domain.CouponSnapshot{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: dec("10")}
	f.carts.On("GetByUserID", ctx, "user-1").Return(cart, nil)
	f.carts.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.Coupon == nil
	}), int64(3)).Return(true, nil)

	view, err := f.svc.RemoveCoupon(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, view.Coupon)
	assert.True(t, view.DiscountAmount.IsZero())
}

func TestClearCart_KeepsCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	cart := storedCart("user-1")
	cart.Coupon = &domain.CouponSnapshot{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: dec("10")}
	f.carts.On("GetByUserID", ctx, "user-1").Return(cart, nil)
	f.carts.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return c.ID == "cart-1" && len(c.Items) == 0 && c.Coupon == nil
	}), int64(3)).Return(true, nil)

	require.NoError(t, f.svc.Clear(ctx, "user-1"))
	assert.Equal(t, int64(4), cart.Version)
	f.carts.AssertExpectations(t)
}

func TestClearCart_NoCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	f.carts.On("GetByUserID", ctx, "user-1").Return(nil, notFound("Cart not found"))

	err := f.svc.Clear(ctx, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
