package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
)

// Collection names.
const (
	ProductsCollection = "products"
	CartsCollection    = "carts"
	CouponsCollection  = "coupons"
	OrdersCollection   = "orders"
)

// Money is stored as Decimal128 so the server never rounds it through a
// binary float.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type variantDoc struct {
	ID    string               `bson:"id"`
	Size  string               `bson:"size"`
	Color string               `bson:"color"`
	Price primitive.Decimal128 `bson:"price"`
	Stock int                  `bson:"stock"`
}

type productDoc struct {
	ID          string                `bson:"_id"`
	Name        string                `bson:"name"`
	Description string                `bson:"description"`
	Category    string                `bson:"category"`
	Images      []string              `bson:"images"`
	Price       *primitive.Decimal128 `bson:"price,omitempty"`
	Variants    []variantDoc          `bson:"variants"`
	CreatedAt   time.Time             `bson:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at"`
}

func newProductDoc(p *domain.Product) (*productDoc, error) {
	doc := &productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Images:      p.Images,
		Variants:    make([]variantDoc, 0, len(p.Variants)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
	if p.Price != nil {
		price, err := toDecimal128(*p.Price)
		if err != nil {
			return nil, err
		}
		doc.Price = &price
	}
	for _, v := range p.Variants {
		price, err := toDecimal128(v.Price)
		if err != nil {
			return nil, err
		}
		doc.Variants = append(doc.Variants, variantDoc{
			ID:    v.ID,
			Size:  v.Size,
			Color: v.Color,
			Price: price,
			Stock: v.Stock,
		})
	}
	return doc, nil
}

func (d *productDoc) toDomain() *domain.Product {
	p := &domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Images:      d.Images,
		Variants:    make([]domain.Variant, 0, len(d.Variants)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if d.Price != nil {
		price := fromDecimal128(*d.Price)
		p.Price = &price
	}
	for _, v := range d.Variants {
		p.Variants = append(p.Variants, domain.Variant{
			ID:    v.ID,
			Size:  v.Size,
			Color: v.Color,
			Price: fromDecimal128(v.Price),
			Stock: v.Stock,
		})
	}
	return p
}

type couponSnapshotDoc struct {
	Code          string               `bson:"code"`
	DiscountType  string               `bson:"discount_type"`
	DiscountValue primitive.Decimal128 `bson:"discount_value"`
}

func newSnapshotDoc(s *domain.CouponSnapshot) (*couponSnapshotDoc, error) {
	if s == nil {
		return nil, nil
	}
	v, err := toDecimal128(s.DiscountValue)
	if err != nil {
		return nil, err
	}
	return &couponSnapshotDoc{Code: s.Code, DiscountType: s.DiscountType, DiscountValue: v}, nil
}

func (d *couponSnapshotDoc) toDomain() *domain.CouponSnapshot {
	if d == nil || d.Code == "" {
		return nil
	}
	return &domain.CouponSnapshot{
		Code:          d.Code,
		DiscountType:  d.DiscountType,
		DiscountValue: fromDecimal128(d.DiscountValue),
	}
}

type cartItemDoc struct {
	ID        string `bson:"id"`
	ProductID string `bson:"product_id"`
	VariantID string `bson:"variant_id,omitempty"`
	Quantity  int    `bson:"quantity"`
}

type cartDoc struct {
	ID        string             `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Items     []cartItemDoc      `bson:"items"`
	Coupon    *couponSnapshotDoc `bson:"coupon"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func newCartDoc(c *domain.Cart, version int64) (*cartDoc, error) {
	coupon, err := newSnapshotDoc(c.Coupon)
	if err != nil {
		return nil, err
	}
	doc := &cartDoc{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]cartItemDoc, 0, len(c.Items)),
		Coupon:    coupon,
		Version:   version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, item := range c.Items {
		doc.Items = append(doc.Items, cartItemDoc(item))
	}
	return doc, nil
}

func (d *cartDoc) toDomain() *domain.Cart {
	c := &domain.Cart{
		ID:        d.ID,
		UserID:    d.UserID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		Coupon:    d.Coupon.toDomain(),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, item := range d.Items {
		c.Items = append(c.Items, domain.CartItem(item))
	}
	return c
}

type couponDoc struct {
	ID                string                `bson:"_id"`
	Code              string                `bson:"code"`
	Description       string                `bson:"description,omitempty"`
	DiscountType      string                `bson:"discount_type"`
	DiscountValue     primitive.Decimal128  `bson:"discount_value"`
	MinPurchaseAmount primitive.Decimal128  `bson:"min_purchase_amount"`
	MaxDiscountAmount *primitive.Decimal128 `bson:"max_discount_amount"`
	UsageLimit        *int                  `bson:"usage_limit"`
	UsedCount         int                   `bson:"used_count"`
	ValidFrom         time.Time             `bson:"valid_from"`
	ValidUntil        time.Time             `bson:"valid_until"`
	Active            bool                  `bson:"active"`
	CreatedAt         time.Time             `bson:"created_at"`
	UpdatedAt         time.Time             `bson:"updated_at"`
}

func newCouponDoc(c *domain.Coupon) (*couponDoc, error) {
	value, err := toDecimal128(c.DiscountValue)
	if err != nil {
		return nil, err
	}
	minPurchase, err := toDecimal128(c.MinPurchaseAmount)
	if err != nil {
		return nil, err
	}
	doc := &couponDoc{
		ID:                c.ID,
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      c.DiscountType,
		DiscountValue:     value,
		MinPurchaseAmount: minPurchase,
		UsageLimit:        c.UsageLimit,
		UsedCount:         c.UsedCount,
		ValidFrom:         c.ValidFrom,
		ValidUntil:        c.ValidUntil,
		Active:            c.Active,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.MaxDiscountAmount != nil {
		maxDiscount, err := toDecimal128(*c.MaxDiscountAmount)
		if err != nil {
			return nil, err
		}
		doc.MaxDiscountAmount = &maxDiscount
	}
	return doc, nil
}

func (d *couponDoc) toDomain() *domain.Coupon {
	c := &domain.Coupon{
		ID:                d.ID,
		Code:              d.Code,
		Description:       d.Description,
		DiscountType:      d.DiscountType,
		DiscountValue:     fromDecimal128(d.DiscountValue),
		MinPurchaseAmount: fromDecimal128(d.MinPurchaseAmount),
		UsageLimit:        d.UsageLimit,
		UsedCount:         d.UsedCount,
		ValidFrom:         d.ValidFrom,
		ValidUntil:        d.ValidUntil,
		Active:            d.Active,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.MaxDiscountAmount != nil {
		v := fromDecimal128(*d.MaxDiscountAmount)
		c.MaxDiscountAmount = &v
	}
	return c
}

type orderItemDoc struct {
	ProductID string               `bson:"product_id"`
	VariantID string               `bson:"variant_id,omitempty"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type addressDoc struct {
	AddressLine1 string `bson:"address_line1"`
	AddressLine2 string `bson:"address_line2,omitempty"`
	City         string `bson:"city"`
	State        string `bson:"state"`
	PostalCode   string `bson:"postal_code"`
	Country      string `bson:"country"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user_id"`
	Items           []orderItemDoc       `bson:"items"`
	ShippingAddress addressDoc           `bson:"shipping_address"`
	PaymentStatus   string               `bson:"payment_status"`
	OrderStatus     string               `bson:"order_status"`
	PaymentMethod   string               `bson:"payment_method"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	DiscountAmount  primitive.Decimal128 `bson:"discount_amount"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	Coupon          *couponSnapshotDoc   `bson:"coupon"`
	ReturnRequested bool                 `bson:"return_requested"`
	ReturnReason    string               `bson:"return_reason"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func newOrderDoc(o *domain.Order) (*orderDoc, error) {
	coupon, err := newSnapshotDoc(o.Coupon)
	if err != nil {
		return nil, err
	}
	doc := &orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           make([]orderItemDoc, 0, len(o.Items)),
		ShippingAddress: addressDoc(o.ShippingAddress),
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		PaymentMethod:   o.PaymentMethod,
		Coupon:          coupon,
		ReturnRequested: o.ReturnRequested,
		ReturnReason:    o.ReturnReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if doc.Subtotal, err = toDecimal128(o.Subtotal); err != nil {
		return nil, err
	}
	if doc.DiscountAmount, err = toDecimal128(o.DiscountAmount); err != nil {
		return nil, err
	}
	if doc.TotalAmount, err = toDecimal128(o.TotalAmount); err != nil {
		return nil, err
	}
	for _, item := range o.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return doc, nil
}

func (d *orderDoc) toDomain() *domain.Order {
	o := &domain.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		Items:           make([]domain.OrderItem, 0, len(d.Items)),
		ShippingAddress: domain.Address(d.ShippingAddress),
		PaymentStatus:   d.PaymentStatus,
		OrderStatus:     d.OrderStatus,
		PaymentMethod:   d.PaymentMethod,
		Subtotal:        fromDecimal128(d.Subtotal),
		DiscountAmount:  fromDecimal128(d.DiscountAmount),
		TotalAmount:     fromDecimal128(d.TotalAmount),
		Coupon:          d.Coupon.toDomain(),
		ReturnRequested: d.ReturnRequested,
		ReturnReason:    d.ReturnReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, item := range d.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     fromDecimal128(item.Price),
		})
	}
	return o
}
