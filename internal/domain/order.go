package domain

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order transition errors.
var (
	ErrOrderNotCancellable    = errors.New("cannot cancel shipped or delivered order")
	ErrReturnAlreadyRequested = errors.New("return already requested")
	ErrOrderAlreadyPaid       = errors.New("order already paid")
	ErrInvalidOrderStatus     = errors.New("invalid order status")
)

// Order is an immutable snapshot of a cart taken at checkout plus its
// payment and fulfilment lifecycle.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentStatus   string          `json:"payment_status"`
	OrderStatus     string          `json:"order_status"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Coupon          *CouponSnapshot `json:"coupon"`
	ReturnRequested bool            `json:"return_requested"`
	ReturnReason    string          `json:"return_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem records the unit price captured at checkout.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Address is a free-form shipping address.
type Address struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// ValidOrderStatuses returns every order status.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusReturned,
	}
}

// IsValidOrderStatus checks if a status string is a known order status.
func IsValidOrderStatus(status string) bool {
	return slices.Contains(ValidOrderStatuses(), status)
}

// PriceItems snapshots cart lines at the current catalog prices and returns
// the items with their subtotal.
func PriceItems(items []CartItem, products map[string]*Product) ([]OrderItem, decimal.Decimal) {
	out := make([]OrderItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		price := decimal.Zero
		if p, ok := products[item.ProductID]; ok && p != nil {
			price = p.UnitPrice(item.VariantID)
		}
		out = append(out, OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     price,
		})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return out, subtotal
}

// Cancel moves the order to cancelled unless it has shipped or been
// delivered.
func (o *Order) Cancel(now time.Time) error {
	if o.OrderStatus == OrderStatusShipped || o.OrderStatus == OrderStatusDelivered {
		return ErrOrderNotCancellable
	}
	o.OrderStatus = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// MarkPaid records a successful payment. It overwrites any prior state.
func (o *Order) MarkPaid(now time.Time) {
	o.PaymentStatus = PaymentStatusPaid
	o.OrderStatus = OrderStatusProcessing
	o.UpdatedAt = now
}

// MarkPaymentFailed records a failed payment and returns the order to pending
// so it can be paid again.
func (o *Order) MarkPaymentFailed(now time.Time) {
	o.PaymentStatus = PaymentStatusFailed
	o.OrderStatus = OrderStatusPending
	o.UpdatedAt = now
}

// RequestReturn flags the order as returned. Delivery is not required.
func (o *Order) RequestReturn(reason string, now time.Time) error {
	if o.ReturnRequested {
		return ErrReturnAlreadyRequested
	}
	o.ReturnRequested = true
	o.ReturnReason = reason
	o.OrderStatus = OrderStatusReturned
	o.UpdatedAt = now
	return nil
}

// SetStatus overwrites the order status with any known status.
func (o *Order) SetStatus(status string, now time.Time) error {
	if !IsValidOrderStatus(status) {
		return ErrInvalidOrderStatus
	}
	o.OrderStatus = status
	o.UpdatedAt = now
	return nil
}

// CheckPayable rejects orders that are already paid.
func (o *Order) CheckPayable() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return ErrOrderAlreadyPaid
	}
	return nil
}
