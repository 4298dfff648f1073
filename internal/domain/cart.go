package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxItemQuantity bounds the quantity of a single cart line.
const MaxItemQuantity = 10000

// ErrQuantityLimit is returned when a line would exceed MaxItemQuantity.
var ErrQuantityLimit = errors.New("cart item quantity limit exceeded")

// Cart is the single shopping cart of a user. Version increases by one on
// every successful write and guards against lost updates.
type Cart struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []CartItem      `json:"items"`
	Coupon    *CouponSnapshot `json:"coupon"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem is one line of a cart. VariantID is empty for products priced
// directly.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// FindItemIndex returns the index of the line for the product/variant pair,
// or -1.
func (c *Cart) FindItemIndex(productID, variantID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// ItemByID returns the line with the given id, or nil.
func (c *Cart) ItemByID(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// AddItem merges quantity into an existing line for the same product and
// variant, or appends a new line with newID. The cart is unchanged when the
// line would exceed MaxItemQuantity.
func (c *Cart) AddItem(newID, productID, variantID string, quantity int) error {
	if quantity > MaxItemQuantity {
		return ErrQuantityLimit
	}
	if i := c.FindItemIndex(productID, variantID); i >= 0 {
		if c.Items[i].Quantity > MaxItemQuantity-quantity {
			return ErrQuantityLimit
		}
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, CartItem{
		ID:        newID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	})
	return nil
}

// RemoveItem drops the line with the given id and reports whether it existed.
func (c *Cart) RemoveItem(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the items and drops the coupon.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Coupon = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// ProductIDs returns the distinct product ids referenced by the cart.
func (c *Cart) ProductIDs() []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// CartView is the priced representation of a cart returned to clients.
type CartView struct {
	ID             string          `json:"id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	Items          []CartLineView  `json:"items"`
	Coupon         *CouponSnapshot `json:"coupon"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// CartLineView is a cart line enriched with product and variant details.
type CartLineView struct {
	ID        string          `json:"id"`
	Product   ProductSummary  `json:"product"`
	Variant   *Variant        `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// EmptyCartView is the view of a user without a cart.
func EmptyCartView() CartView {
	return CartView{
		Items:          []CartLineView{},
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
	}
}

// BuildCartView prices every line with products and applies the cart's
// coupon. A product missing from products prices its lines at zero.
func BuildCartView(c *Cart, products map[string]*Product) CartView {
	if c == nil {
		return EmptyCartView()
	}

	view := EmptyCartView()
	view.ID = c.ID
	view.UserID = c.UserID
	view.Coupon = c.Coupon
	updated := c.UpdatedAt
	view.UpdatedAt = &updated

	subtotal := decimal.Zero
	for _, item := range c.Items {
		line := CartLineView{
			ID:        item.ID,
			Product:   ProductSummary{ID: item.ProductID},
			Quantity:  item.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if p, ok := products[item.ProductID]; ok && p != nil {
			line.Product = p.Summary()
			line.Variant = p.FindVariant(item.VariantID)
			line.UnitPrice = p.UnitPrice(item.VariantID)
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		subtotal = subtotal.Add(line.LineTotal)
		view.Items = append(view.Items, line)
	}

	view.Subtotal = subtotal
	view.DiscountAmount = ComputeDiscount(subtotal, c.Coupon)
	view.Total = ApplyDiscount(subtotal, view.DiscountAmount)
	return view
}
